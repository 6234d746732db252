// Package file provides file-based configuration adapters.
//
// Adapters:
//   - ConfigStore: TOML settings at ~/.sercha-kb/config.toml
//   - PromptStore: user-editable prompt templates under ~/.sercha-kb/prompts
//   - LoadEnv: .env loading for process environment overrides
package file

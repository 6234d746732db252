// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Ingestion runs extract, chunk, embed and index in sequence. Generation
// runs retrieval, context assembly and provider fallback.
package services

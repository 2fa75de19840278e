// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with language models inside travelmesh.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, core.FunctionCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight scripting for tests (MockModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface from this
// package so the routing graph remains decoupled from vendor SDKs.
package model

// Package domain contains the core business types for the Rememba
// retrieval engine: queries and their classification, retrieval plans,
// candidates and scores, persisted memories and summaries, assembled
// context, and the configuration surface. Types here are pure data with
// no infrastructure dependencies.
package domain

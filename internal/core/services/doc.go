// Package services contains the core retrieval pipeline: query
// analysis, strategy planning, source executors, relevance scoring,
// orchestration, context assembly, and the background audit job.
// Services depend only on domain types and ports, never on adapters.
package services

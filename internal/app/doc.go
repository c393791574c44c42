// Package app composes the jobhunter services.
//
//	internal/app/
//	├── application.go   # wiring and lifecycle
//	├── domain/          # entities shared by services and stores
//	├── storage/         # store interfaces, memory and SQL implementations
//	├── services/        # business rules, one package per aggregate
//	├── realtime/        # websocket hub and notification brokers
//	├── scheduler/       # cron maintenance tasks
//	├── httpapi/         # REST routes, OpenAPI document, health
//	├── query/           # filter language and paging
//	├── system/          # lifecycle manager
//	└── metrics/         # Prometheus collectors
//
// Stores default to the in-memory implementation so the application runs
// and tests without a database. cmd/jobhunter swaps in the SQL store.
package app

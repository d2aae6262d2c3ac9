// Command bakery runs one bakery simulation until a stop condition holds or it receives SIGINT/SIGTERM.
//
// Usage:
//
//	bakery [-config bakery.conf] [-journal memory|postgres|sqlite|none] [-report dir|s3://bucket/prefix]
//	       [-metrics-addr :9090] [-observability-enabled] [-time-unit 1s] [-seed 42]
//
// The Postgres journal reads POSTGRES_DSN, POSTGRES_REPLICA_DSN and DB_ADAPTER (pgx, sql.db, sqlx).
// S3 reports read BAKERY_REPORT_S3_REGION, BAKERY_REPORT_S3_ENDPOINT and BAKERY_REPORT_S3_PATH_STYLE.
package main

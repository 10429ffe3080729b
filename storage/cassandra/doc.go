// Package cassandra stores customer profiles and conversations in a Cassandra
// keyspace.
//
// The keyspace holds two tables: customer_profiles keyed by user_id, and
// conversations partitioned by user_id and clustered by timestamp. User IDs
// must be UUIDs.
package cassandra

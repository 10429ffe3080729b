package cassandra

import "fmt"

// schemaStatements returns the DDL creating the keyspace and its tables.
// Every statement is idempotent.
func schemaStatements(keyspace string, replication int) []string {
	return []string{
		fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
WITH REPLICATION = { 'class' : 'SimpleStrategy', 'replication_factor' : %d }`, keyspace, replication),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.customer_profiles (
    user_id UUID PRIMARY KEY,
    name TEXT,
    email TEXT,
    past_transactions LIST<TEXT>
)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.conversations (
    user_id UUID,
    timestamp TIMESTAMP,
    message TEXT,
    response TEXT,
    PRIMARY KEY (user_id, timestamp)
)`, keyspace),
	}
}

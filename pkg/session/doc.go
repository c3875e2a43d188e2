/*
Package session implements per-user serialization and persistence orchestration.

Every event of a user runs inside Manager.WithLock, which admits callers for the
same user strictly in arrival order while leaving other users unaffected. An
optional DistributedLocker extends the guarantee across multiple replicas.
*/
package session

// Package messages stores the session history of chat messages.
//
// Records are appended once and afterwards only their delivery state
// changes; nothing is ever deleted. Two implementations satisfy
// Repository: MemoryRepository (the default, session-scoped) and
// SQLiteRepository over a dbx.DBTX for a history that survives restarts.
//
//	repo := messages.NewSQLiteRepository(db)
//	_ = repo.Append(ctx, rec)
//	_ = repo.UpdateState(ctx, rec.ID, models.StateDelivered)
//	all, _ := repo.List(ctx)
package messages

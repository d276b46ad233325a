// Package pebblestore is the embedded kv.Store backend: a thin wrapper around
// Pebble with an fsync policy, metrics hooks, bounded prefix scans and an
// in-process prefix watch.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data/store",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Put(ctx, "user/alice", []byte(`{"login":"alice"}`))
//	pairs, _ := db.Scan(ctx, "user/")
//
//	sub, _ := db.Watch(ctx, "message/queue/user/bob/")
//	defer sub.Cancel()
//	<-sub.Events()
package pebblestore

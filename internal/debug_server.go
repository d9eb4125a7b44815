package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// InspectRow is one stored row as shown by the debug server.
type InspectRow struct {
	Key       string          `json:"key"`
	Namespace string          `json:"namespace"`
	EntityID  string          `json:"entityId"`
	Value     json.RawMessage `json:"value"`
}

type StatsProvider func() map[string]any

type PageData struct {
	Prefix string         `json:"prefix"`
	Items  []InspectRow   `json:"items"`
	Stats  map[string]any `json:"stats"`
}

// InspectHandler lists the rows under ?prefix= (default "room:") as JSON, with live stats.
func InspectHandler(db *badger.DB, statsProvider StatsProvider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "room:"
		}
		data := PageData{Prefix: prefix, Items: []InspectRow{}, Stats: map[string]any{}}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		err := db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				val, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				data.Items = append(data.Items, mapRow(string(item.Key()), val))
			}
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(data)
	})
}

// StartDebugServer serves InspectHandler on /inspect until the process exits.
func StartDebugServer(log *slog.Logger, db *badger.DB, host string, port int, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	mux.Handle("/inspect", InspectHandler(db, statsProvider))
	address := fmt.Sprintf("%s:%d", host, port)
	go func() {
		log.Info("Starting debug server", "address", address)
		if err := http.ListenAndServe(address, mux); err != nil {
			log.Warn("Debug server stopped", "error", err)
		}
	}()
}

// mapRow splits "namespace:entity[:...]" keys. Values that are not JSON are shown as strings.
func mapRow(key string, val []byte) InspectRow {
	row := InspectRow{Key: key, Namespace: "default"}
	parts := strings.SplitN(key, ":", 3)
	if len(parts) >= 2 {
		row.Namespace = parts[0]
		row.EntityID = parts[1]
	}
	if json.Valid(val) {
		row.Value = val
	} else {
		row.Value, _ = json.Marshal(string(val))
	}
	return row
}

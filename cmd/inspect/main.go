// Command inspect prints the rows of a room-sync store as a table.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"room-sync/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "room:", "Prefix to scan (room:, tier:, boost:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if err = render(db, *prefix, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func render(db *badger.DB, prefix string, out io.Writer) error {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Key", "Type", "Entity", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				table.Append(describe(key, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

// describe summarises a row. Rows that do not decode are shown raw instead of stopping the scan.
func describe(key string, v []byte) []string {
	parts := strings.Split(key, ":")
	kind := parts[0]
	entity := ""
	if len(parts) > 1 {
		entity = parts[1]
	}
	detail := fmt.Sprintf("Size: %d bytes", len(v))

	switch kind {
	case "room":
		var r domain.RoomRecord
		if json.Unmarshal(v, &r) == nil {
			detail = fmt.Sprintf("creator=%s tier=%s djMode=%t djPlayers=%d admins=%v",
				r.CreatorID, r.CreatorTier, r.Settings.DJMode, r.Settings.DJPlayers, r.Settings.Admins)
		}
	case "tier":
		var p domain.TierSettings
		if json.Unmarshal(v, &p) == nil {
			limit := "unlimited"
			if p.QueueLimit != nil {
				limit = fmt.Sprint(*p.QueueLimit)
			}
			detail = fmt.Sprintf("queue=%s djMode=%t ads=%t", limit, p.DJModeAvailable, p.AdsEnabled)
		}
	case "boost":
		var b domain.Boost
		if json.Unmarshal(v, &b) == nil {
			entity = b.ID
			state := "expired"
			if b.ActiveAt(time.Now()) {
				state = "active"
			}
			detail = fmt.Sprintf("room=%s until=%s %s", b.RoomID, b.ExpiresAt.Format(time.RFC3339), state)
		}
	}
	return []string{key, strings.ToUpper(kind), entity, detail}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}

// Command inspect dumps identity records from a relay badger store as a
// readable table, without touching the lock of a running process.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

// identityRow mirrors the repository's on-disk record. The password hash
// is decoded but never printed.
type identityRow struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Avatar       string `json:"avatar"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	prefix := flag.String("prefix", "identity:", "Prefix to scan")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("-db is required")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "ID", "Username", "Avatar", "Created"})
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

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			// Skip the username reverse index, it only holds IDs
			if strings.HasPrefix(string(item.Key()), "username:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				var row identityRow
				if err := json.Unmarshal(v, &row); err != nil {
					// Log the broken record and keep scanning
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}

				// First 8 characters of the ID are enough to eyeball
				displayID := row.ID
				if len(displayID) > 8 {
					displayID = displayID[:8]
				}

				table.Append([]string{
					string(item.Key()),
					displayID,
					row.Username,
					row.Avatar,
					time.Unix(row.CreatedAt, 0).Format(time.DateTime),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}

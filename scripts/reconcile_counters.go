//go:build ignore

package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// Drift is a ticket whose cached child counters disagree with its children.
type Drift struct {
	ID             string
	WorkspaceID    string
	Number         int
	ChildCount     int
	ChildDoneCount int
	LiveCount      int
	LiveDoneCount  int
}

func main() {
	dbPath := flag.String("db", "data/kanban.db", "Path to the kanban database")
	dryRun := flag.Bool("dry-run", false, "Report drift without fixing it")
	flag.Parse()

	db, err := sql.Open("sqlite3", "file:"+*dbPath+"?_foreign_keys=on&_txlock=immediate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	drifted, err := findDrift(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning tickets: %v\n", err)
		os.Exit(1)
	}

	if len(drifted) == 0 {
		fmt.Println("All child counters are consistent")
		return
	}

	fmt.Printf("Found %d ticket(s) with drifted counters:\n\n", len(drifted))
	for _, d := range drifted {
		fmt.Printf("  %s (#%d in %s)\n", d.ID, d.Number, d.WorkspaceID)
		fmt.Printf("    -> childCount %d -> %d\n", d.ChildCount, d.LiveCount)
		fmt.Printf("    -> childDoneCount %d -> %d\n", d.ChildDoneCount, d.LiveDoneCount)
	}
	fmt.Println()

	if *dryRun {
		fmt.Println("=== DRY RUN - No changes made ===")
		return
	}

	if err := fix(db, drifted); err != nil {
		fmt.Fprintf(os.Stderr, "Error fixing counters: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("=== Reconciled %d ticket(s) ===\n", len(drifted))
}

func findDrift(db *sql.DB) ([]Drift, error) {
	rows, err := db.Query(`
		SELECT t.id, t.workspace_id, t.number, t.child_count, t.child_done_count,
			COUNT(c.id),
			COALESCE(SUM(CASE WHEN c.status = 'done' THEN 1 ELSE 0 END), 0)
		FROM tickets t
		LEFT JOIN tickets c ON c.parent_id = t.id
		GROUP BY t.id
		HAVING t.child_count != COUNT(c.id)
			OR t.child_done_count != COALESCE(SUM(CASE WHEN c.status = 'done' THEN 1 ELSE 0 END), 0)
		ORDER BY t.workspace_id, t.number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drifted []Drift
	for rows.Next() {
		var d Drift
		if err := rows.Scan(&d.ID, &d.WorkspaceID, &d.Number, &d.ChildCount, &d.ChildDoneCount, &d.LiveCount, &d.LiveDoneCount); err != nil {
			return nil, err
		}
		drifted = append(drifted, d)
	}
	return drifted, rows.Err()
}

// fix rewrites every drifted row in one transaction.
func fix(db *sql.DB, drifted []Drift) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range drifted {
		if _, err := tx.Exec(
			"UPDATE tickets SET child_count = ?, child_done_count = ? WHERE id = ?",
			d.LiveCount, d.LiveDoneCount, d.ID,
		); err != nil {
			return fmt.Errorf("failed to update %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

package coverage

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// sqliteHeader opens every SQLite 3 database file, including the
// .coverage data file written by coverage.py.
var sqliteHeader = []byte("SQLite format 3\x00")

// LoadCoverageDB reads coverage.py's native .coverage data file.
// Executed lines come from the line_bits table (line coverage) and
// the arc table (branch coverage), merged over all contexts.
// Relative paths are joined onto dir when dir is non-empty.
func LoadCoverageDB(path, dir string) (Profile, error) {
	// Opening a missing path would create an empty database.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("coverage data %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening coverage data %s: %w", path, err)
	}
	defer db.Close()

	files, err := coverageDBFiles(db)
	if err != nil {
		return nil, fmt.Errorf("reading coverage data %s: %w", path, err)
	}

	out := make(Profile, len(files))
	for _, name := range files {
		out.lines(resolve(name, dir))
	}

	if err := readLineBits(db, files, dir, out); err != nil {
		return nil, fmt.Errorf("reading coverage data %s: %w", path, err)
	}
	if err := readArcs(db, files, dir, out); err != nil {
		return nil, fmt.Errorf("reading coverage data %s: %w", path, err)
	}
	return out, nil
}

func coverageDBFiles(db *sql.DB) (map[int64]string, error) {
	rows, err := db.Query("SELECT id, path FROM file")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make(map[int64]string)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		files[id] = name
	}
	return files, rows.Err()
}

func readLineBits(db *sql.DB, files map[int64]string, dir string, out Profile) error {
	rows, err := db.Query("SELECT file_id, numbits FROM line_bits")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      int64
			numbits []byte
		)
		if err := rows.Scan(&id, &numbits); err != nil {
			return err
		}
		name, ok := files[id]
		if !ok {
			continue
		}
		lines := out.lines(resolve(name, dir))
		for _, n := range DecodeNumbits(numbits) {
			lines.Add(n)
		}
	}
	return rows.Err()
}

// readArcs adds both ends of every recorded arc. Negative numbers
// mark function entry and exit and are dropped by Lines.Add. Data
// files written without branch coverage have an empty arc table.
func readArcs(db *sql.DB, files map[int64]string, dir string, out Profile) error {
	rows, err := db.Query("SELECT file_id, fromno, tono FROM arc")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, from, to int64
		if err := rows.Scan(&id, &from, &to); err != nil {
			return err
		}
		name, ok := files[id]
		if !ok {
			continue
		}
		lines := out.lines(resolve(name, dir))
		lines.Add(int(from))
		lines.Add(int(to))
	}
	return rows.Err()
}

// DecodeNumbits expands coverage.py's numbits encoding: bit i of
// byte j set means line j*8+i was executed.
func DecodeNumbits(numbits []byte) []int {
	var out []int
	for j, b := range numbits {
		for i := range 8 {
			if b&(1<<i) != 0 {
				out = append(out, j*8+i)
			}
		}
	}
	return out
}

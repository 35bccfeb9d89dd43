package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tkjaer/epinger/internal/shared"
)

// HostRow is a stored host summary
type HostRow struct {
	RunID    string
	Index    int
	Host     string
	Address  string
	Sent     int
	Received int
	LossPct  float64
	AvgMs    sql.NullFloat64
}

// RunRow is a stored run
type RunRow struct {
	ID        string
	Started   time.Time
	ElapsedMs float64
	Hosts     int
}

// SaveRun stores run and all of its hosts in one transaction
func (h *DB) SaveRun(run *shared.RunResult) error {
	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("history begin failed: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
        INSERT INTO runs (id, started, elapsed_ms, num_requests, request_timeout, max_threads)
        VALUES (?, ?, ?, ?, ?, ?)
    `,
		run.ID,
		run.Started.UTC().Format(time.RFC3339Nano),
		shared.Milliseconds(run.Elapsed),
		run.Config.NumRequests,
		run.Config.RequestTimeout,
		run.Config.MaxThreads,
	)
	if err != nil {
		return fmt.Errorf("history insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.Prepare(`
        INSERT INTO hosts (run_id, idx, host, address, sent, received, loss_pct, min_ms, avg_ms, max_ms, stddev_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("history prepare failed: %w", err)
	}
	defer stmt.Close()

	for i, host := range run.Hosts {
		var minMs, avgMs, maxMs, stddevMs sql.NullFloat64
		if host.RTT != nil {
			minMs = nullMs(host.RTT.Min)
			avgMs = nullMs(host.RTT.Avg)
			maxMs = nullMs(host.RTT.Max)
			stddevMs = nullMs(host.RTT.StdDev)
		}
		_, err := stmt.Exec(run.ID, i, string(host.Target), host.Address,
			host.Sent, host.Received, host.LossPct, minMs, avgMs, maxMs, stddevMs)
		if err != nil {
			return fmt.Errorf("history insert host %s: %w", host.Target, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history commit failed: %w", err)
	}
	return nil
}

func nullMs(d time.Duration) sql.NullFloat64 {
	return sql.NullFloat64{Float64: shared.Milliseconds(d), Valid: true}
}

// Runs returns the most recent runs, newest first
func (h *DB) Runs(limit int) ([]RunRow, error) {
	rows, err := h.db.Query(`
        SELECT r.id, r.started, r.elapsed_ms, COUNT(h.idx)
        FROM runs r LEFT JOIN hosts h ON h.run_id = r.id
        GROUP BY r.id
        ORDER BY r.started DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRow
	for rows.Next() {
		var r RunRow
		var started string
		if err := rows.Scan(&r.ID, &started, &r.ElapsedMs, &r.Hosts); err != nil {
			return nil, err
		}
		if r.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("history run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Hosts returns the hosts stored for runID in probe order
func (h *DB) Hosts(runID string) ([]HostRow, error) {
	rows, err := h.db.Query(`
        SELECT run_id, idx, host, address, sent, received, loss_pct, avg_ms
        FROM hosts
        WHERE run_id = ?
        ORDER BY idx
    `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hosts []HostRow
	for rows.Next() {
		var r HostRow
		var address sql.NullString
		if err := rows.Scan(&r.RunID, &r.Index, &r.Host, &address, &r.Sent, &r.Received, &r.LossPct, &r.AvgMs); err != nil {
			return nil, err
		}
		r.Address = address.String
		hosts = append(hosts, r)
	}
	return hosts, rows.Err()
}

package sqlite

const historyColumns = `
			surrogate_id, business_key, version, is_current,
			effective_from, effective_to,
			entity_ref, actor_id, actor_label, measured_value, flag,
			event_date, epoch_timestamp, free_text_1, free_text_2,
			loaded_at, run_id`

// Key lists are bound as one JSON array and expanded with json_each.
const (
	queryHasHistory = `SELECT EXISTS (SELECT 1 FROM review_history)`

	// Ordered so the first row per key is the highest current version.
	queryCurrentByKeys = `
		SELECT` + historyColumns + `
		FROM review_history
		WHERE is_current = 1
		  AND business_key IN (SELECT value FROM json_each(?))
		ORDER BY business_key, version DESC
	`

	queryMaxVersions = `
		SELECT business_key, MAX(version)
		FROM review_history
		WHERE business_key IN (SELECT value FROM json_each(?))
		GROUP BY business_key
	`

	queryInsertEntry = `
		INSERT INTO review_history (` + historyColumns + `
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	// The max current version of a key is never matched, so the result does
	// not depend on the order rows are visited in.
	queryExpireSuperseded = `
		UPDATE review_history
		SET is_current = 0, effective_to = ?
		WHERE is_current = 1
		  AND EXISTS (
			SELECT 1
			FROM review_history AS n
			WHERE n.business_key = review_history.business_key
			  AND n.is_current = 1
			  AND n.version > review_history.version
		  )
	`

	queryInconsistentKeys = `
		SELECT business_key
		FROM review_history
		WHERE is_current = 1
		GROUP BY business_key
		HAVING COUNT(*) > 1
		ORDER BY business_key
		LIMIT ?
	`

	queryDeleteHistory = `DELETE FROM review_history`

	queryHistoryByKey = `
		SELECT` + historyColumns + `
		FROM review_history
		WHERE business_key = ?
		ORDER BY version ASC
	`

	queryCurrentByEntity = `
		SELECT` + historyColumns + `
		FROM review_history
		WHERE is_current = 1
		  AND entity_ref = ?
		ORDER BY effective_from DESC, business_key ASC
		LIMIT ?
	`

	queryRecordRun = `
		INSERT INTO pipeline_runs (
			run_id, mode, started_at, finished_at,
			received, rejected, duplicates, candidates, mutated,
			new_entities, changed, unchanged, inserted, expired,
			inconsistent_keys, status, error
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	queryRecentRuns = `
		SELECT
			run_id, mode, started_at, finished_at,
			received, rejected, duplicates, candidates, mutated,
			new_entities, changed, unchanged, inserted, expired,
			inconsistent_keys, status, error
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT ?
	`
)

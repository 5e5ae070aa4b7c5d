package postgres

// SQL for the review_history table and the pipeline_runs log.

const historyColumns = `
			surrogate_id, business_key, version, is_current,
			effective_from, effective_to,
			entity_ref, actor_id, actor_label, measured_value, flag,
			event_date, epoch_timestamp, free_text_1, free_text_2,
			loaded_at, run_id`

const (
	queryHasHistory = `SELECT EXISTS (SELECT 1 FROM review_history)`

	// queryCurrentByKeys returns one current row per key. DISTINCT ON picks the
	// highest version when an interrupted run left two current rows behind.
	queryCurrentByKeys = `
		SELECT DISTINCT ON (business_key)` + historyColumns + `
		FROM review_history
		WHERE is_current
		  AND business_key = ANY($1)
		ORDER BY business_key, version DESC
	`

	queryMaxVersions = `
		SELECT business_key, MAX(version)
		FROM review_history
		WHERE business_key = ANY($1)
		GROUP BY business_key
	`

	queryInsertEntry = `
		INSERT INTO review_history (` + historyColumns + `
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	// queryExpireSuperseded is an existence check, not a diff against the
	// incoming batch: re-running it once only the max version is current is a no-op.
	queryExpireSuperseded = `
		UPDATE review_history AS h
		SET is_current = FALSE, effective_to = $1
		WHERE h.is_current
		  AND EXISTS (
			SELECT 1
			FROM review_history AS n
			WHERE n.business_key = h.business_key
			  AND n.is_current
			  AND n.version > h.version
		  )
	`

	queryInconsistentKeys = `
		SELECT business_key
		FROM review_history
		WHERE is_current
		GROUP BY business_key
		HAVING COUNT(*) > 1
		ORDER BY business_key
		LIMIT $1
	`

	queryTruncateHistory = `TRUNCATE TABLE review_history`

	queryHistoryByKey = `
		SELECT` + historyColumns + `
		FROM review_history
		WHERE business_key = $1
		ORDER BY version ASC
	`

	queryCurrentByEntity = `
		SELECT` + historyColumns + `
		FROM review_history
		WHERE is_current
		  AND entity_ref = $1
		ORDER BY effective_from DESC, business_key ASC
		LIMIT $2
	`

	queryRecordRun = `
		INSERT INTO pipeline_runs (
			run_id, mode, started_at, finished_at,
			received, rejected, duplicates, candidates, mutated,
			new_entities, changed, unchanged, inserted, expired,
			inconsistent_keys, status, error
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	queryRecentRuns = `
		SELECT
			run_id, mode, started_at, finished_at,
			received, rejected, duplicates, candidates, mutated,
			new_entities, changed, unchanged, inserted, expired,
			inconsistent_keys, status, error
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
)

package executor

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/opentracing/opentracing-go"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

// maxWorkers caps the striding worker pool.
const maxWorkers = 16

// Progress reports run-wide processing progress for callers that want a
// live counter (e.g. a verbose-mode CLI flag).
type Progress struct {
	Done  int64
	Total int64
}

// Run executes q against the files discovered at q.FromPath:
// per-file DOM load and row extraction (sequential under 5 files, a striding
// worker pool at or above that), then the GROUP BY/HAVING/DISTINCT/ORDER
// BY/LIMIT/OFFSET pipeline.
func Run(ctx context.Context, q *query.Query, progress *int64) (*ResultSet, *errs.Err) {
	runID := "unknown"
	if id, err := uuid.NewV4(); err == nil {
		runID = id.String()
	}
	log := logrus.WithFields(logrus.Fields{"run_id": runID, "from": q.FromPath})

	files, derr := Discover(q.FromPath)
	if derr != nil {
		return nil, derr
	}
	log.WithField("file_count", len(files)).Debug("discovered input files")

	rows, warnings, failedAll := processFiles(ctx, q, files, progress, log)
	if failedAll {
		return nil, errs.ErrAllFilesFailed.New()
	}

	rows = pipeline(q, rows)

	return &ResultSet{
		Columns:  columnNames(q),
		Rows:     rows,
		Warnings: warnings,
	}, nil
}

func columnNames(q *query.Query) []string {
	cols := make([]string, len(q.SelectFields))
	for i, item := range q.SelectFields {
		cols[i] = item.ColumnName()
	}
	return cols
}

// fileResult is one worker's output for a single input file.
type fileResult struct {
	rows     [][]string
	warnings []*errs.Err
	err      *errs.Err
}

// processFiles runs file discovery results through loadDocument+processFile,
// sequentially below the parallelism threshold and via a striding
// worker pool at or above it, honoring ctx cancellation at
// file boundaries. It returns the concatenated rows in file order, the
// collected warnings, and whether every file failed (a fatal condition).
func processFiles(ctx context.Context, q *query.Query, files []string, progress *int64, log *logrus.Entry) ([][]string, []*errs.Err, bool) {
	results := make([]fileResult, len(files))

	process := func(i int) {
		span, spanCtx := opentracing.StartSpanFromContext(ctx, "executor.processFile")
		defer span.Finish()
		_ = spanCtx

		filename := files[i]
		doc, err := loadDocument(filename)
		if err != nil {
			results[i] = fileResult{err: err}
			log.WithField("file", filename).WithError(asGoError(err)).Warn("file failed")
			return
		}
		rows, warnings := processFile(doc, q, filename)
		results[i] = fileResult{rows: rows, warnings: warnings}
		if progress != nil {
			atomic.AddInt64(progress, 1)
		}
	}

	if len(files) < 5 {
		for i := range files {
			if ctx.Err() != nil {
				break
			}
			process(i)
		}
	} else {
		workers := runtime.NumCPU()
		if workers <= 0 {
			workers = 4
		}
		if workers > maxWorkers {
			workers = maxWorkers
		}

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(start int) {
				defer wg.Done()
				for i := start; i < len(files); i += workers {
					if ctx.Err() != nil {
						return
					}
					process(i)
				}
			}(w)
		}
		wg.Wait()
	}

	var allRows [][]string
	var warnings []*errs.Err
	failures := 0
	for _, r := range results {
		if r.err != nil {
			warnings = append(warnings, r.err)
			failures++
			continue
		}
		allRows = append(allRows, r.rows...)
		warnings = append(warnings, r.warnings...)
	}
	return allRows, warnings, len(files) > 0 && failures == len(files)
}

func asGoError(e *errs.Err) error {
	if e == nil {
		return nil
	}
	return e
}

// pipeline runs post-file operations in their fixed order:
// GROUP BY+aggregates, HAVING, DISTINCT, ORDER BY, OFFSET, LIMIT.
func pipeline(q *query.Query, rows [][]string) [][]string {
	if q.HasAggregates || len(q.GroupByFields) > 0 {
		grouped, err := groupAndAggregate(q, groupColumnIndexes(q), rows)
		if err == nil {
			rows = grouped
		}
	}

	if q.Having != nil {
		filtered := make([][]string, 0, len(rows))
		for _, row := range rows {
			ok, _ := evaluateHaving(q, q.Having, row)
			if ok {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	if q.Distinct {
		rows = applyDistinct(rows)
	}

	if len(q.OrderByFields) > 0 {
		rows = applyOrderBy(q, rows, orderColumnIndexes(q))
	}

	rows = applyLimitOffset(rows, q.Offset, q.Limit)
	return rows
}

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	md2docx "github.com/docfoundry/md2docx"
)

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Skipped    bool
	Err        error
	Duration   time.Duration
}

// convertBatch processes files concurrently using the service pool. A
// failed document is reported but does not stop the remaining conversions.
func convertBatch(ctx context.Context, pool *md2docx.ServicePool, files []FileToConvert, cacheDir string, log *zap.Logger) error {
	if len(files) == 0 {
		log.Info("no markdown files found")
		return nil
	}

	concurrency := pool.Size()
	if concurrency > len(files) {
		concurrency = len(files)
	}

	results := make([]ConversionResult, len(files))
	jobs := make(chan int, len(files))
	var wg sync.WaitGroup

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			svc := pool.Acquire()
			defer pool.Release(svc)

			for idx := range jobs {
				results[idx] = convertJob(ctx, svc, files[idx], cacheDir)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return reportResults(results, log)
}

// convertJob converts one file, honoring the freshness skip and context
// cancellation.
func convertJob(ctx context.Context, svc *md2docx.Service, file FileToConvert, cacheDir string) ConversionResult {
	result := ConversionResult{InputPath: file.InputPath, OutputPath: file.OutputPath}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}
	if upToDate(file) {
		result.Skipped = true
		return result
	}

	start := time.Now()
	result.Err = convertOne(ctx, svc, file, "", cacheDir)
	result.Duration = time.Since(start).Round(time.Millisecond)
	return result
}

// reportResults logs per-document outcomes and returns an error when any
// document failed.
func reportResults(results []ConversionResult, log *zap.Logger) error {
	converted, skipped, failed := 0, 0, 0
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
			log.Debug("up to date, skipped", zap.String("input", r.InputPath))
		case r.Err != nil:
			failed++
			log.Error("conversion failed", zap.String("input", r.InputPath), zap.Error(r.Err))
		default:
			converted++
			log.Info("converted", zap.String("output", r.OutputPath), zap.Duration("took", r.Duration))
		}
	}

	log.Info("batch complete",
		zap.Int("converted", converted), zap.Int("skipped", skipped), zap.Int("failed", failed))

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}

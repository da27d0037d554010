package converter

import (
	"context"
	"errors"
	"time"

	"inventoryetl/internal/logging"
)

// BatchReport итоги пакетного запуска.
type BatchReport struct {
	Total     int
	Converted int
	Copied    int
	Failed    int
	Results   []*Result
	Failures  []*FileError
	Duration  time.Duration
}

// ConvertBatch конвертирует задания по порядку. Ошибка файла записывается, и
// обработка продолжается. Досрочно останавливает только отмена контекста.
// onResult, если не nil, вызывается после каждого файла.
func (c *Converter) ConvertBatch(ctx context.Context, jobs []Job, onResult func(*Result)) (*BatchReport, error) {
	start := time.Now()
	report := &BatchReport{Total: len(jobs)}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		res, err := c.ConvertFile(ctx, job)
		report.Results = append(report.Results, res)
		if err != nil {
			report.Failed++
			var fe *FileError
			if errors.As(err, &fe) {
				report.Failures = append(report.Failures, fe)
			}
		} else {
			report.Converted++
			if res.Copied {
				report.Copied++
			}
		}
		if onResult != nil {
			onResult(res)
		}
	}
	report.Duration = time.Since(start)
	logging.LogBatchComplete(c.logger, report.Total, report.Converted, report.Failed, report.Duration)
	return report, nil
}

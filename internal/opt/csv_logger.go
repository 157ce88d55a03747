package opt

import (
	"encoding/csv"
	"log"
	"os"
	"strconv"
	"time"
)

// CSVLogger writes the cost history to a CSV file, one row per iteration.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool

	file   *os.File
	writer *csv.Writer
	start  time.Time
}

// NewCSVLogger creates a new CSVLogger.
func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
	}
}

func (c *CSVLogger) OnTrainBegin(m Model) {
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0644)
	if err != nil {
		log.Printf("CSVLogger: failed to open file %s: %v", c.Filename, err)
		return
	}
	c.file = file
	c.writer = csv.NewWriter(file)
	c.start = time.Now()

	// Write header if not appending or if file is empty
	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		if err := c.writer.Write([]string{"iteration", "train_cost", "test_cost", "time_seconds"}); err != nil {
			log.Printf("CSVLogger: failed to write header: %v", err)
		}
		c.writer.Flush()
	}
}

func (c *CSVLogger) OnIterationEnd(iteration int, trainCost, testCost float64) {
	if c.writer == nil {
		return
	}

	elapsed := time.Since(c.start).Seconds()
	record := []string{
		strconv.Itoa(iteration),
		strconv.FormatFloat(trainCost, 'f', 8, 64),
		strconv.FormatFloat(testCost, 'f', 8, 64),
		strconv.FormatFloat(elapsed, 'f', 3, 64),
	}

	if err := c.writer.Write(record); err != nil {
		log.Printf("CSVLogger: failed to write record: %v", err)
	}
	c.writer.Flush()
}

func (c *CSVLogger) OnTrainEnd(r *Result) {
	if c.file != nil {
		c.writer.Flush()
		if err := c.writer.Error(); err != nil {
			log.Printf("CSVLogger: failed to flush %s: %v", c.Filename, err)
		}
		if err := c.file.Close(); err != nil {
			log.Printf("CSVLogger: failed to close %s: %v", c.Filename, err)
		}
		c.file = nil
		c.writer = nil
	}
}

package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ksumesh431/new-relic-graphql/internal/domain"
)

// CSVSink 将每个数据集写为 dir/<name>.csv。
type CSVSink struct {
	dir    string
	logger *zap.Logger
}

// NewCSVSink 创建 CSVSink，dir 为空时写入当前目录。
func NewCSVSink(dir string, logger *zap.Logger) *CSVSink {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVSink{dir: dir, logger: logger}
}

func (s *CSVSink) Name() string { return "csv" }

// Path 返回数据集对应的文件路径。
func (s *CSVSink) Path(ds Dataset) string {
	return filepath.Join(s.dir, ds.Name+".csv")
}

// WriteRecords 先写临时文件再 rename，失败时目标文件保持原样。
func (s *CSVSink) WriteRecords(ctx context.Context, ds Dataset, records [][]string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkWidth(ds, records); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+ds.Name+"-*.csv.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(ds.Columns); err != nil {
		return fmt.Errorf("write %s header: %w", ds.Name, err)
	}
	if err = w.WriteAll(records); err != nil {
		return fmt.Errorf("write %s records: %w", ds.Name, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", ds.Name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", ds.Name, err)
	}
	path := s.Path(ds)
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", ds.Name, err)
	}
	s.logger.Info("dataset written",
		zap.String("dataset", ds.Name),
		zap.String("path", path),
		zap.Int("rows", len(records)))
	return nil
}

// ReadCSV 读取 path，表头必须与 columns 完全一致，返回不含表头的记录。
func ReadCSV(path string, columns []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(columns)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	if err := domain.CheckHeader(header, columns); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadDataset 从 dir 中读取数据集。
func ReadDataset(dir string, ds Dataset) ([][]string, error) {
	return ReadCSV(filepath.Join(dir, ds.Name+".csv"), ds.Columns)
}

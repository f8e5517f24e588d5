package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"
)

// streamParquetFile adapts a write-only stream, such as a cloud object
// writer, to the parquet file interface.
type streamParquetFile struct {
	w      io.WriteCloser
	offset int64
}

func newStreamParquetFile(w io.WriteCloser) *streamParquetFile {
	return &streamParquetFile{w: w}
}

func (s *streamParquetFile) Open(string) (source.ParquetFile, error)   { return s, nil }
func (s *streamParquetFile) Create(string) (source.ParquetFile, error) { return s, nil }

func (s *streamParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.offset = offset
	case io.SeekCurrent:
		s.offset += offset
	default:
		return 0, fmt.Errorf("seek from end not supported for streamed files")
	}
	return s.offset, nil
}

func (s *streamParquetFile) Read([]byte) (int, error) {
	return 0, fmt.Errorf("read not supported for streamed files")
}

func (s *streamParquetFile) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.offset += int64(n)
	return n, err
}

func (s *streamParquetFile) Close() error { return s.w.Close() }

type parquetPartition struct {
	file source.ParquetFile
	pw   *writer.ParquetWriter
}

// ParquetOutput writes one parquet file per partition. Files are finalized
// on Close.
type ParquetOutput struct {
	store      store
	logger     *zap.Logger
	mu         sync.Mutex
	partitions map[string]*parquetPartition
}

func NewParquetOutput(st store, logger *zap.Logger) *ParquetOutput {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParquetOutput{
		store:      st,
		logger:     logger,
		partitions: make(map[string]*parquetPartition),
	}
}

func (p *ParquetOutput) createPartition(key string) (*parquetPartition, error) {
	var (
		fw  source.ParquetFile
		err error
	)
	if p.store.Local() {
		// make sure the directory exists before the local writer opens the file
		f, cerr := p.store.Create(key)
		if cerr != nil {
			return nil, cerr
		}
		_ = f.Close()
		fw, err = local.NewLocalFileWriter(p.store.Path(key))
		if err != nil {
			return nil, fmt.Errorf("failed to create local file writer: %w", err)
		}
	} else {
		w, cerr := p.store.Create(key)
		if cerr != nil {
			return nil, cerr
		}
		fw = newStreamParquetFile(w)
	}

	pw, err := writer.NewParquetWriter(fw, new(RankingRow), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	return &parquetPartition{file: fw, pw: pw}, nil
}

func (p *ParquetOutput) WriteRanking(r Ranking) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := r.Topic + "/" + r.PartitionPath() + "/data.parquet"
	part, ok := p.partitions[key]
	if !ok {
		var err error
		if part, err = p.createPartition(key); err != nil {
			return fmt.Errorf("failed to create new writer: %w", err)
		}
		p.partitions[key] = part
	}

	for i := range r.Rows {
		if err := part.pw.Write(r.Rows[i]); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

func (p *ParquetOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for key, part := range p.partitions {
		if err := part.pw.WriteStop(); err != nil {
			lastErr = err
			p.logger.Error("failed to finalize parquet writer", zap.String("partition", key), zap.Error(err))
		}
		if err := part.file.Close(); err != nil {
			lastErr = err
			p.logger.Error("failed to close parquet file", zap.String("partition", key), zap.Error(err))
		}
	}
	p.partitions = make(map[string]*parquetPartition)
	return lastErr
}

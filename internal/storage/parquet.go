package storage

import (
	"bytes"
	"fmt"

	"github.com/RMahshie/noisemap/pkg/models"
	parquet "github.com/parquet-go/parquet-go"
)

// Content types accepted by UploadFile
const (
	ContentTypeParquet = "application/vnd.apache.parquet"
	ContentTypeJSON    = "application/json"
)

// SpectrumRow is one band of one source in an emission export
type SpectrumRow struct {
	RunID     string  `parquet:"run_id"`
	SourceID  int64   `parquet:"source_id"`
	Ordinal   int32   `parquet:"ordinal"`
	Frequency int32   `parquet:"frequency"`
	Day       float64 `parquet:"day"`
	Evening   float64 `parquet:"evening"`
	Night     float64 `parquet:"night"`
	Lden      float64 `parquet:"lden"`
}

// SpectrumRows flattens records into one row per source and band
func SpectrumRows(records []*models.EmissionRecord, axis models.BandAxis) []SpectrumRow {
	rows := make([]SpectrumRow, 0, len(records)*axis.Len())
	for _, rec := range records {
		e := rec.Emission
		for b, f := range axis.Frequencies {
			rows = append(rows, SpectrumRow{
				RunID:     rec.RunID,
				SourceID:  rec.SourceID,
				Ordinal:   int32(rec.Ordinal),
				Frequency: int32(f),
				Day:       at(e.Day, b),
				Evening:   at(e.Evening, b),
				Night:     at(e.Night, b),
				Lden:      at(e.Lden, b),
			})
		}
	}
	return rows
}

// EncodeParquet writes records as a Snappy-compressed Parquet file
func EncodeParquet(records []*models.EmissionRecord, axis models.BandAxis) ([]byte, error) {
	var buf bytes.Buffer
	pw := parquet.NewGenericWriter[SpectrumRow](&buf, parquet.Compression(&parquet.Snappy))

	if _, err := pw.Write(SpectrumRows(records, axis)); err != nil {
		return nil, fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeParquet reads an export produced by EncodeParquet
func DecodeParquet(data []byte) ([]SpectrumRow, error) {
	rows, err := parquet.Read[SpectrumRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet export: %w", err)
	}
	return rows, nil
}

func at(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}

package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/parquet-go/parquet-go"

	"enrprod/internal/models"
)

// parquetRow is the Parquet schema of an observation.
type parquetRow struct {
	Region        string  `parquet:"region,dict"`
	EnergyType    string  `parquet:"energy_type,dict"`
	Year          int32   `parquet:"year"`
	ProductionMWh float64 `parquet:"production_mwh"`
}

// EncodeParquet writes observations as a zstd-compressed Parquet file.
func EncodeParquet(obs []models.Observation) ([]byte, error) {
	rows := make([]parquetRow, len(obs))
	for i, o := range obs {
		rows[i] = parquetRow{
			Region:        o.Region,
			EnergyType:    o.EnergyType,
			Year:          int32(o.Year),
			ProductionMWh: o.ProductionMWh,
		}
	}

	var buf bytes.Buffer

	w := parquet.NewGenericWriter[parquetRow](&buf, parquet.Compression(&parquet.Zstd))

	if _, err := w.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeParquet reads observations back from EncodeParquet output.
func DecodeParquet(data []byte) ([]models.Observation, error) {
	rows, err := parquet.Read[parquetRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}

	obs := make([]models.Observation, len(rows))
	for i, r := range rows {
		obs[i] = models.Observation{
			Region:        r.Region,
			EnergyType:    r.EnergyType,
			Year:          int(r.Year),
			ProductionMWh: r.ProductionMWh,
		}
	}

	return obs, nil
}

// EncodeJSONL writes one JSON object per observation, zstd-compressed.
func EncodeJSONL(obs []models.Observation) ([]byte, error) {
	var buf bytes.Buffer

	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}

	enc := json.NewEncoder(zw)
	for _, o := range obs {
		if err := enc.Encode(o); err != nil {
			zw.Close()

			return nil, fmt.Errorf("encode observation: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zstd writer: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeJSONL reads observations back from EncodeJSONL output.
func DecodeJSONL(data []byte) ([]models.Observation, error) {
	zr, err := zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()

	dec := json.NewDecoder(zr)

	obs := []models.Observation{}

	for dec.More() {
		var o models.Observation
		if err := dec.Decode(&o); err != nil {
			return nil, fmt.Errorf("decode observation %d: %w", len(obs)+1, err)
		}

		obs = append(obs, o)
	}

	return obs, nil
}

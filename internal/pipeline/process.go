package pipeline

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"stocklens/internal"
	"stocklens/internal/config"
	"stocklens/internal/storage"
)

// ProcessingService runs the full pipeline for one uploaded workbook:
// ingest, resolve, normalize, collapse, join, metrics. The pipeline is a
// pure function of the file bytes plus configuration, so completed results
// are memoized in the store keyed on the content hash. A failure at any
// validation step aborts the run; no partial result is ever produced.
type ProcessingService struct {
	cfg    config.Config
	store  *storage.DB
	logger *slog.Logger
}

// NewProcessingService wires the service. store may be nil, which disables
// the run ledger and the snapshot cache.
func NewProcessingService(cfg config.Config, store *storage.DB, logger *slog.Logger) *ProcessingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessingService{cfg: cfg, store: store, logger: logger}
}

// ProcessFile reads the workbook from disk and processes it.
func (s *ProcessingService) ProcessFile(path string) (*internal.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Process(filepath.Base(path), data)
}

// Process runs the pipeline over the workbook bytes.
func (s *ProcessingService) Process(fileName string, data []byte) (*internal.Result, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if s.store != nil {
		if blob, ok, err := s.store.GetSnapshot(hash); err == nil && ok {
			res, err := DecodeResult(blob)
			if err == nil {
				s.logger.Info("snapshot cache hit", "file", fileName, "hash", hash[:12])
				return res, nil
			}
			s.logger.Warn("discarding unreadable snapshot", "hash", hash[:12], "error", err)
		}
	}

	start := time.Now()
	res, err := s.run(fileName, hash, data)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.InsertRun(res); err != nil {
			s.logger.Warn("failed to record run", "error", err)
		}
		if blob, err := EncodeResult(res); err == nil {
			if err := s.store.PutSnapshot(hash, fileName, blob); err != nil {
				s.logger.Warn("failed to cache snapshot", "error", err)
			}
		}
	}

	s.logger.Info("workbook processed",
		"file", fileName,
		"records", len(res.Table.Rows),
		"matched", res.Join.Matched,
		"rightOnly", res.Join.RightOnly,
		"duration", time.Since(start))

	return res, nil
}

func (s *ProcessingService) run(fileName, hash string, data []byte) (*internal.Result, error) {
	wb, err := ReadWorkbook(data, s.cfg.SheetBalance, s.cfg.SheetSales)
	if err != nil {
		return nil, err
	}

	salesRaw, hasSales := wb[s.cfg.SheetSales]
	balanceRaw, hasBalance := wb[s.cfg.SheetBalance]
	if !hasSales {
		return nil, fmt.Errorf("workbook has no %q sheet", s.cfg.SheetSales)
	}

	salesRes := Resolve(internal.RoleSales, salesRaw.Headers, SalesSpecs())
	features := internal.Features{TwoSheet: hasBalance, Denominator: internal.FieldBalanceQty}

	styleField := internal.FieldStyleID
	if !salesRes.Has(internal.FieldStyleID) && salesRes.Has(internal.FieldSKU) {
		styleField = internal.FieldSKU
		salesRes.Missing = without(salesRes.Missing, internal.FieldStyleID)
	} else if s.cfg.PreferSKUStyleID && salesRes.Has(internal.FieldSKU) {
		styleField = internal.FieldSKU
	}
	features.StyleFromSKU = styleField == internal.FieldSKU

	if !hasBalance {
		features.Denominator = internal.FieldOpeningStock
		if !salesRes.Has(internal.FieldOpeningStock) {
			salesRes.Missing = append(salesRes.Missing, internal.FieldOpeningStock)
		}
	}
	if err := salesRes.SchemaErr(); err != nil {
		return nil, err
	}
	features.MarketplaceKey = salesRes.Has(internal.FieldMarketplace)

	// On the two-sheet path the sales table is the right side of a join
	// keyed on (style, year, month), so marketplace rows must merge here;
	// keeping them separate would leave duplicate join keys and lose every
	// channel after the first. Only the single-sheet table keeps
	// per-marketplace rows.
	sales, salesStats := Normalize(salesRaw, salesRes, styleField)
	sales, salesDups := Collapse(sales, features.MarketplaceKey && !hasBalance)
	if salesDups > 0 {
		s.logger.Warn("aggregated duplicate sales rows", "rows", salesDups)
	}

	var (
		joined       internal.Table
		balanceStats internal.NormalizeStats
		balanceDups  int
		joinStats    internal.JoinStats
	)
	if hasBalance {
		balanceRes := Resolve(internal.RoleBalance, balanceRaw.Headers, BalanceSpecs())
		if err := balanceRes.SchemaErr(); err != nil {
			return nil, err
		}
		var balance internal.Table
		balance, balanceStats = Normalize(balanceRaw, balanceRes, internal.FieldStyleID)
		balance, balanceDups = Collapse(balance, false)
		joined, joinStats = LeftJoin(balance, sales)
	} else {
		joined = sales
	}

	thresholds := EfficiencyThresholds{
		LowMax:    s.cfg.EffLowMax,
		MediumMax: s.cfg.EffMediumMax,
		HighMax:   s.cfg.EffHighMax,
	}
	joined = ApplyMetrics(joined, features.Denominator, thresholds)

	res := &internal.Result{
		FileName:    fileName,
		FileHash:    hash,
		ProcessedAt: time.Now().UTC(),
		Features:    features,
		Table:       joined,
		Balance:     balanceStats,
		Sales:       salesStats,
		Join:        joinStats,
	}
	res.Summary = summarize(res, balanceDups, salesDups)
	res.Years, res.Months = filterOptions(joined)

	return res, nil
}

func summarize(res *internal.Result, balanceDups, salesDups int) internal.Summary {
	sum := internal.Summary{
		BalanceRecords:   res.Balance.Rows,
		SalesRecords:     res.Sales.Rows,
		DuplicateBalance: balanceDups,
		DuplicateSales:   salesDups,
		LeftOnlyKeys:     res.Join.LeftOnly,
		RightOnlyKeys:    res.Join.RightOnly,
	}

	styles := map[string]bool{}
	first := true
	for _, rec := range res.Table.Rows {
		styles[rec.StyleID] = true
		salesQty := rec.Measure(internal.FieldSalesQty)
		sum.TotalBalanceQty += rec.Measure(res.Features.Denominator)
		sum.TotalSalesQty += salesQty
		if salesQty > 0 {
			sum.MatchedRecords++
		} else {
			sum.NoSalesRecords++
		}

		pct := rec.Measure(internal.FieldPctSold)
		if first || pct > sum.MaxPctSold {
			sum.MaxPctSold = pct
		}
		if first || pct < sum.MinPctSold {
			sum.MinPctSold = pct
		}
		first = false
	}

	sum.UniqueProducts = len(styles)
	sum.PctSold = PctSold(sum.TotalSalesQty, sum.TotalBalanceQty)
	return sum
}

// filterOptions lists the distinct years and months present, sorted.
// Unparseable periods are excluded, and months outside 1-12 never reach the
// month selector.
func filterOptions(t internal.Table) (years, months []int) {
	yearSet := map[int]bool{}
	monthSet := map[int]bool{}
	for _, rec := range t.Rows {
		if rec.Year != nil {
			yearSet[*rec.Year] = true
		}
		if rec.Month != nil && *rec.Month >= 1 && *rec.Month <= 12 {
			monthSet[*rec.Month] = true
		}
	}
	for y := range yearSet {
		years = append(years, y)
	}
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Ints(years)
	sort.Ints(months)
	return years, months
}

func without(fields []internal.Field, drop internal.Field) []internal.Field {
	out := fields[:0]
	for _, f := range fields {
		if f != drop {
			out = append(out, f)
		}
	}
	return out
}

// EncodeResult serializes a Result for the snapshot cache.
func EncodeResult(res *internal.Result) ([]byte, error) {
	buf := bytes.Buffer{}
	if err := gob.NewEncoder(&buf).Encode(res); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeResult restores a cached Result.
func DecodeResult(blob []byte) (*internal.Result, error) {
	res := &internal.Result{}
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(res); err != nil {
		return nil, err
	}
	return res, nil
}

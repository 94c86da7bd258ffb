package game

import (
	"fmt"
	"os"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// CountRule describes a grid-wide symbol count condition, used for jackpot
// and bonus detection: the rule holds when the symbol appears Required or
// more times anywhere in the flattened grid.
type CountRule struct {
	Symbol   Symbol `yaml:"symbol"`
	Required int    `yaml:"required"`
}

// Provider supplies the game math for a spin. Implementations are read-only
// from the engine's point of view; how the data is edited or persisted is
// not the engine's concern.
type Provider interface {
	ReelSet() ReelSet
	PayTable() PayTable
	Paylines() []Payline
	SymbolPayouts() map[Symbol]decimal.Decimal
	BonusPrizes() BonusPrizeTable
	GridRows() int
	JackpotRule() CountRule
	BonusRule() CountRule
}

// Config is a fully validated set of game math. The zero value is not
// usable; build one through LoadConfig, DefaultConfig or by filling the
// fields and calling Validate.
type Config struct {
	Rows    int
	Reels   ReelSet
	Lines   []Payline
	Table   PayTable
	Payouts map[Symbol]decimal.Decimal
	Prizes  BonusPrizeTable
	Jackpot CountRule
	Bonus   CountRule
}

// Validate checks every invariant the engine relies on. Malformed config is
// rejected here, at the provider boundary, so the engine itself never sees
// a zero-weight reel or a mismatched pattern.
func (c *Config) Validate() error {
	if c.Rows < 1 {
		return configErrorf("grid rows must be >= 1, got %d", c.Rows)
	}
	if len(c.Reels) == 0 {
		return configErrorf("reel set is empty")
	}

	alphabet := make(map[Symbol]bool)
	for i, reel := range c.Reels {
		if len(reel) == 0 {
			return configErrorf("reel %d has no symbols", i)
		}
		positive := false
		for _, ws := range reel {
			if ws.Symbol == "" {
				return configErrorf("reel %d contains an empty symbol", i)
			}
			if ws.Weight < 0 {
				return configErrorf("reel %d symbol %s has negative weight", i, ws.Symbol)
			}
			if ws.Weight > 0 {
				positive = true
			}
			alphabet[ws.Symbol] = true
		}
		if !positive {
			return configErrorf("reel %d has no symbol with positive weight", i)
		}
	}

	if len(c.Lines) == 0 {
		return configErrorf("no paylines configured")
	}
	for i, line := range c.Lines {
		if len(line) != len(c.Reels) {
			return configErrorf("payline %d has %d coordinates, want one per column (%d)", i, len(line), len(c.Reels))
		}
		for col, row := range line {
			if row < 0 || row >= c.Rows {
				return configErrorf("payline %d column %d row %d out of bounds [0,%d)", i, col, row, c.Rows)
			}
		}
	}

	if len(c.Table) == 0 {
		return configErrorf("pay table is empty")
	}
	for i, entry := range c.Table {
		if len(entry.Pattern) != len(c.Reels) {
			return configErrorf("pay table entry %d pattern length %d != payline length %d", i, len(entry.Pattern), len(c.Reels))
		}
		for _, s := range entry.Pattern {
			if s == "" {
				return configErrorf("pay table entry %d contains an empty symbol", i)
			}
			if s != Wildcard && !alphabet[s] {
				return configErrorf("pay table entry %d references unknown symbol %s", i, s)
			}
		}
		if entry.Points < 0 {
			return configErrorf("pay table entry %d has negative points", i)
		}
		if entry.Payout.IsNegative() {
			return configErrorf("pay table entry %d has negative payout", i)
		}
	}

	if len(c.Prizes) == 0 {
		return configErrorf("bonus prize table is empty")
	}
	totalPrizeWeight := 0.0
	for i, p := range c.Prizes {
		if p.Prize.IsNegative() {
			return configErrorf("bonus prize %d is negative", i)
		}
		if p.Weight < 0 {
			return configErrorf("bonus prize %d has negative weight", i)
		}
		totalPrizeWeight += p.Weight
	}
	if totalPrizeWeight <= 0 {
		return configErrorf("bonus prize table has no positive weight")
	}

	for _, rule := range []struct {
		name string
		r    CountRule
	}{{"jackpot", c.Jackpot}, {"bonus", c.Bonus}} {
		if rule.r.Symbol == "" {
			return configErrorf("%s rule has no symbol", rule.name)
		}
		if rule.r.Required < 1 {
			return configErrorf("%s rule requires a count >= 1", rule.name)
		}
	}

	for sym, v := range c.Payouts {
		if sym == "" {
			return configErrorf("symbol payout table contains an empty symbol")
		}
		if v.IsNegative() {
			return configErrorf("symbol payout for %s is negative", sym)
		}
	}

	return nil
}

// FileProvider serves a validated Config loaded from a YAML file. Reload
// re-reads the file; a file that fails validation leaves the previous
// config in place.
type FileProvider struct {
	path string

	mu  sync.RWMutex
	cfg *Config
}

// LoadFile reads, parses and validates the game math file.
func LoadFile(path string) (*FileProvider, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &FileProvider{path: path, cfg: cfg}, nil
}

// Reload re-reads the config file, keeping the current config on failure.
func (p *FileProvider) Reload() error {
	cfg, err := LoadConfig(p.path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
	return nil
}

func (p *FileProvider) snapshot() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

func (p *FileProvider) ReelSet() ReelSet                          { return p.snapshot().Reels }
func (p *FileProvider) PayTable() PayTable                        { return p.snapshot().Table }
func (p *FileProvider) Paylines() []Payline                       { return p.snapshot().Lines }
func (p *FileProvider) SymbolPayouts() map[Symbol]decimal.Decimal { return p.snapshot().Payouts }
func (p *FileProvider) BonusPrizes() BonusPrizeTable              { return p.snapshot().Prizes }
func (p *FileProvider) GridRows() int                             { return p.snapshot().Rows }
func (p *FileProvider) JackpotRule() CountRule                    { return p.snapshot().Jackpot }
func (p *FileProvider) BonusRule() CountRule                      { return p.snapshot().Bonus }

// StaticProvider serves a fixed Config. Used for tests and for the built-in
// default math when no config file is present.
type StaticProvider struct {
	cfg *Config
}

// NewStaticProvider wraps a Config after validating it.
func NewStaticProvider(cfg *Config) (*StaticProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &StaticProvider{cfg: cfg}, nil
}

func (p *StaticProvider) ReelSet() ReelSet                          { return p.cfg.Reels }
func (p *StaticProvider) PayTable() PayTable                        { return p.cfg.Table }
func (p *StaticProvider) Paylines() []Payline                       { return p.cfg.Lines }
func (p *StaticProvider) SymbolPayouts() map[Symbol]decimal.Decimal { return p.cfg.Payouts }
func (p *StaticProvider) BonusPrizes() BonusPrizeTable              { return p.cfg.Prizes }
func (p *StaticProvider) GridRows() int                             { return p.cfg.Rows }
func (p *StaticProvider) JackpotRule() CountRule                    { return p.cfg.Jackpot }
func (p *StaticProvider) BonusRule() CountRule                      { return p.cfg.Bonus }

// rawConfig mirrors the YAML file layout. Monetary values are parsed as
// floats and converted to decimals during normalization.
type rawConfig struct {
	Grid struct {
		Rows int `yaml:"rows"`
	} `yaml:"grid"`
	Reels    [][]WeightedSymbol `yaml:"reels"`
	Paylines [][]int            `yaml:"paylines"`
	PayTable []struct {
		Pattern []string `yaml:"pattern"`
		Points  int64    `yaml:"points"`
		Payout  float64  `yaml:"payout"`
		Trigger string   `yaml:"trigger"`
	} `yaml:"paytable"`
	SymbolPayouts map[string]float64 `yaml:"symbol_payouts"`
	BonusPrizes   []struct {
		Prize  float64 `yaml:"prize"` // major units
		Weight float64 `yaml:"weight"`
	} `yaml:"bonus_prizes"`
	Jackpot CountRule `yaml:"jackpot"`
	Bonus   CountRule `yaml:"bonus"`
}

// LoadConfig reads and validates a game math YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game config: %w", err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, configErrorf("parse %s: %v", path, err)
	}

	cfg := &Config{
		Rows:    raw.Grid.Rows,
		Jackpot: raw.Jackpot,
		Bonus:   raw.Bonus,
		Payouts: make(map[Symbol]decimal.Decimal, len(raw.SymbolPayouts)),
	}

	cfg.Reels = make(ReelSet, len(raw.Reels))
	for i, reel := range raw.Reels {
		cfg.Reels[i] = Reel(reel)
	}
	cfg.Lines = make([]Payline, len(raw.Paylines))
	for i, line := range raw.Paylines {
		cfg.Lines[i] = Payline(line)
	}
	cfg.Table = make(PayTable, len(raw.PayTable))
	for i, e := range raw.PayTable {
		pattern := make([]Symbol, len(e.Pattern))
		for j, s := range e.Pattern {
			pattern[j] = Symbol(s)
		}
		cfg.Table[i] = PayTableEntry{
			Pattern: pattern,
			Points:  e.Points,
			Payout:  decimal.NewFromFloat(e.Payout),
			Trigger: e.Trigger,
		}
	}
	for sym, v := range raw.SymbolPayouts {
		cfg.Payouts[Symbol(sym)] = decimal.NewFromFloat(v)
	}
	cfg.Prizes = make(BonusPrizeTable, len(raw.BonusPrizes))
	for i, p := range raw.BonusPrizes {
		// prizes are stored in cents like every other monetary value
		cfg.Prizes[i] = BonusPrize{
			Prize:  decimal.NewFromFloat(p.Prize).Mul(decimal.NewFromInt(100)),
			Weight: p.Weight,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the built-in 5×3 game math: nine symbols, the
// classic five paylines, the stock pay table and a 2%-funded jackpot on
// three JACKP symbols anywhere in the grid.
func DefaultConfig() *Config {
	sym := func(names ...string) []Symbol {
		out := make([]Symbol, len(names))
		for i, n := range names {
			out[i] = Symbol(n)
		}
		return out
	}
	dec := decimal.NewFromFloat

	reel := Reel{
		{Symbol: "CHER", Weight: 5},
		{Symbol: "ONIO", Weight: 4},
		{Symbol: "CLOC", Weight: 3},
		{Symbol: "STAR", Weight: 2},
		{Symbol: "DIAMN", Weight: 1},
		{Symbol: "WILD", Weight: 1},
		{Symbol: "BONUS", Weight: 1},
		{Symbol: "SCAT", Weight: 1},
		{Symbol: "JACKP", Weight: 1},
	}

	entry := func(points int64, payout float64, trigger string, names ...string) PayTableEntry {
		return PayTableEntry{Pattern: sym(names...), Points: points, Payout: dec(payout), Trigger: trigger}
	}

	return &Config{
		Rows:  3,
		Reels: ReelSet{reel, reel, reel, reel, reel},
		Lines: []Payline{
			{1, 1, 1, 1, 1}, // middle row
			{0, 0, 0, 0, 0}, // top row
			{2, 2, 2, 2, 2}, // bottom row
			{0, 1, 2, 1, 0}, // V
			{2, 1, 0, 1, 2}, // inverted V
		},
		Table: PayTable{
			// five of a kind
			entry(1000, 20, "", "CHER", "CHER", "CHER", "CHER", "CHER"),
			entry(750, 15, "", "ONIO", "ONIO", "ONIO", "ONIO", "ONIO"),
			entry(500, 10, "", "CLOC", "CLOC", "CLOC", "CLOC", "CLOC"),
			entry(250, 5, "", "STAR", "STAR", "STAR", "STAR", "STAR"),
			entry(1500, 30, "", "DIAMN", "DIAMN", "DIAMN", "DIAMN", "DIAMN"),
			// four of a kind
			entry(200, 5, "", "CHER", "CHER", "CHER", "CHER", "*"),
			entry(150, 3.75, "", "ONIO", "ONIO", "ONIO", "ONIO", "*"),
			entry(100, 2.5, "", "CLOC", "CLOC", "CLOC", "CLOC", "*"),
			entry(50, 1.25, "", "STAR", "STAR", "STAR", "STAR", "*"),
			entry(300, 7.5, "", "DIAMN", "DIAMN", "DIAMN", "DIAMN", "*"),
			// three of a kind
			entry(15, 1, "", "CHER", "CHER", "CHER", "*", "*"),
			entry(40, 1, "", "ONIO", "ONIO", "ONIO", "*", "*"),
			entry(30, 0.75, "", "CLOC", "CLOC", "CLOC", "*", "*"),
			entry(20, 0.5, "", "STAR", "STAR", "STAR", "*", "*"),
			entry(75, 1.875, "", "DIAMN", "DIAMN", "DIAMN", "*", "*"),
			// specials
			entry(500, 10, "", "WILD", "WILD", "WILD", "*", "*"),
			entry(100, 2, "", "WILD", "WILD", "*", "*", "*"),
			entry(10, 0.2, "", "WILD", "*", "*", "*", "*"),
			entry(200, 5, TriggerBonusGame, "BONUS", "BONUS", "BONUS", "*", "*"),
			entry(0, 0, TriggerFreeSpins, "SCAT", "SCAT", "SCAT", "*", "*"),
			entry(10000, 200, TriggerJackpot, "JACKP", "JACKP", "JACKP", "JACKP", "JACKP"),
			entry(150, 3, "", "CHER", "ONIO", "CLOC", "STAR", "DIAMN"),
			entry(25, 0.625, "", "DIAMN", "DIAMN", "*", "*", "*"),
			entry(15, 0.375, "", "CHER", "CHER", "*", "*", "*"),
		},
		Payouts: map[Symbol]decimal.Decimal{
			"CHER":  dec(1),
			"ONIO":  dec(1),
			"CLOC":  dec(0.75),
			"STAR":  dec(0.5),
			"DIAMN": dec(1.875),
			"WILD":  dec(10),
			"BONUS": dec(5),
			"SCAT":  dec(0),
			"JACKP": dec(200),
		},
		Prizes: BonusPrizeTable{
			{Prize: dec(0), Weight: 50},
			{Prize: dec(500), Weight: 20},  // 5.00
			{Prize: dec(1000), Weight: 12}, // 10.00
			{Prize: dec(2500), Weight: 8},  // 25.00
			{Prize: dec(5000), Weight: 6},  // 50.00
			{Prize: dec(10000), Weight: 3}, // 100.00
			{Prize: dec(50000), Weight: 1}, // 500.00
		},
		Jackpot: CountRule{Symbol: "JACKP", Required: 3},
		Bonus:   CountRule{Symbol: "BONUS", Required: 3},
	}
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IndicatorConfig holds per-family indicator parameters. Every option
// has a documented default; unset fields in a YAML override fall back
// to those defaults.
type IndicatorConfig struct {
	MAWindows []int `yaml:"ma_windows"`

	MACDFast   int `yaml:"macd_fast"`
	MACDSlow   int `yaml:"macd_slow"`
	MACDSignal int `yaml:"macd_signal"`

	DMIWindows []int `yaml:"dmi_windows"`

	TRIXWindows      []int `yaml:"trix_windows"`
	TRIXSignalPeriod int   `yaml:"trix_signal_period"`

	RSIWindows []int `yaml:"rsi_windows"`
	KDJWindows []int `yaml:"kdj_windows"`
	CCIWindows []int `yaml:"cci_windows"`
	ROCWindows []int `yaml:"roc_windows"`
	MTMWindows []int `yaml:"mtm_windows"`

	BollWindows []int   `yaml:"boll_windows"`
	BollStdDev  float64 `yaml:"boll_std_dev"`

	WRWindows []int `yaml:"wr_windows"`

	BRARWindows []int `yaml:"brar_windows"`

	ASISignalPeriod int `yaml:"asi_signal_period"`

	EMVWindows  []int   `yaml:"emv_windows"`
	EMVConstant float64 `yaml:"emv_constant"`

	MCSTWindows []int `yaml:"mcst_windows"`
	VRWindows   []int `yaml:"vr_windows"`
	PSYWindows  []int `yaml:"psy_windows"`

	VolMAWindows []int `yaml:"vol_ma_windows"`
}

// DefaultIndicatorConfig returns the standard parameter set.
func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		MAWindows:        []int{5, 10, 20, 60},
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
		DMIWindows:       []int{14},
		TRIXWindows:      []int{12},
		TRIXSignalPeriod: 9,
		RSIWindows:       []int{14},
		KDJWindows:       []int{14},
		CCIWindows:       []int{14},
		ROCWindows:       []int{12},
		MTMWindows:       []int{12},
		BollWindows:      []int{20},
		BollStdDev:       2.0,
		WRWindows:        []int{10, 6},
		BRARWindows:      []int{26},
		ASISignalPeriod:  20,
		EMVWindows:       []int{14},
		EMVConstant:      100000000,
		MCSTWindows:      []int{12},
		VRWindows:        []int{26},
		PSYWindows:       []int{12},
		VolMAWindows:     []int{5, 10},
	}
}

// LoadIndicatorFile loads an IndicatorConfig from a YAML file, applying
// defaults for any field the file leaves unset.
func LoadIndicatorFile(path string) (IndicatorConfig, error) {
	cfg := DefaultIndicatorConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that all configured windows and periods are usable.
func (c IndicatorConfig) Validate() error {
	windowLists := map[string][]int{
		"ma_windows":     c.MAWindows,
		"dmi_windows":    c.DMIWindows,
		"trix_windows":   c.TRIXWindows,
		"rsi_windows":    c.RSIWindows,
		"kdj_windows":    c.KDJWindows,
		"cci_windows":    c.CCIWindows,
		"roc_windows":    c.ROCWindows,
		"mtm_windows":    c.MTMWindows,
		"boll_windows":   c.BollWindows,
		"wr_windows":     c.WRWindows,
		"brar_windows":   c.BRARWindows,
		"emv_windows":    c.EMVWindows,
		"mcst_windows":   c.MCSTWindows,
		"vr_windows":     c.VRWindows,
		"psy_windows":    c.PSYWindows,
		"vol_ma_windows": c.VolMAWindows,
	}
	for name, windows := range windowLists {
		for _, w := range windows {
			if w <= 0 {
				return fmt.Errorf("%s contains non-positive window %d", name, w)
			}
		}
	}

	periods := map[string]int{
		"macd_fast":          c.MACDFast,
		"macd_slow":          c.MACDSlow,
		"macd_signal":        c.MACDSignal,
		"trix_signal_period": c.TRIXSignalPeriod,
		"asi_signal_period":  c.ASISignalPeriod,
	}
	for name, p := range periods {
		if p <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, p)
		}
	}

	if c.BollStdDev <= 0 {
		return fmt.Errorf("boll_std_dev must be positive, got %v", c.BollStdDev)
	}
	if c.EMVConstant <= 0 {
		return fmt.Errorf("emv_constant must be positive, got %v", c.EMVConstant)
	}

	return nil
}

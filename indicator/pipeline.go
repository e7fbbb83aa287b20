package indicator

import (
	"fmt"

	"factorflow/config"
	"factorflow/observability"
)

// Pipeline computes indicator families over a Frame. All requested
// families are evaluated into a single column list first and attached
// in one step, so no family ever reads another family's output.
type Pipeline struct {
	cfg     config.IndicatorConfig
	cache   *Cache
	metrics *observability.Metrics
}

// NewPipeline creates a Pipeline with the given parameter set.
func NewPipeline(cfg config.IndicatorConfig) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		metrics: observability.GetMetrics(),
	}
}

// WithCache attaches a result cache to the pipeline.
func (p *Pipeline) WithCache(cache *Cache) *Pipeline {
	p.cache = cache
	return p
}

// Apply computes the requested indicator families and attaches their
// columns to the frame. With no kinds given, every family is computed.
func (p *Pipeline) Apply(f *Frame, kinds ...Kind) error {
	if len(kinds) == 0 {
		kinds = AllKinds()
	}

	var key uint64
	if p.cache != nil {
		key = fingerprint(f, kinds, p.cfg)
		if cols, ok := p.cache.get(key); ok {
			p.metrics.RecordIndicatorCache("hit")
			f.attach(cols)
			return nil
		}
		p.metrics.RecordIndicatorCache("miss")
	}

	var all []column
	for _, k := range kinds {
		timer := p.metrics.NewTimer()
		cols, err := p.familyColumns(f, k)
		if err != nil {
			return err
		}
		timer.ObserveIndicator(k.String())
		all = append(all, cols...)
	}
	f.attach(all)

	if p.cache != nil {
		p.cache.set(key, all)
	}
	return nil
}

func (p *Pipeline) familyColumns(f *Frame, k Kind) ([]column, error) {
	switch k {
	case KindMA:
		return maColumns(f, p.cfg.MAWindows), nil
	case KindMACD:
		return macdColumns(f, p.cfg.MACDFast, p.cfg.MACDSlow, p.cfg.MACDSignal), nil
	case KindDMI:
		return dmiColumns(f, p.cfg.DMIWindows), nil
	case KindTRIX:
		return trixColumns(f, p.cfg.TRIXWindows, p.cfg.TRIXSignalPeriod), nil
	case KindRSI:
		return rsiColumns(f, p.cfg.RSIWindows), nil
	case KindKDJ:
		return kdjColumns(f, p.cfg.KDJWindows), nil
	case KindCCI:
		return cciColumns(f, p.cfg.CCIWindows), nil
	case KindROC:
		return rocColumns(f, p.cfg.ROCWindows), nil
	case KindMTM:
		return mtmColumns(f, p.cfg.MTMWindows), nil
	case KindBoll:
		return bollColumns(f, p.cfg.BollWindows, p.cfg.BollStdDev), nil
	case KindWR:
		return wrColumns(f, p.cfg.WRWindows), nil
	case KindBRAR:
		return brarColumns(f, p.cfg.BRARWindows), nil
	case KindASI:
		return asiColumns(f, p.cfg.ASISignalPeriod), nil
	case KindEMV:
		return emvColumns(f, p.cfg.EMVWindows, p.cfg.EMVConstant), nil
	case KindMCST:
		return mcstColumns(f, p.cfg.MCSTWindows), nil
	case KindOBV:
		return obvColumns(f), nil
	case KindVR:
		return vrColumns(f, p.cfg.VRWindows), nil
	case KindPSY:
		return psyColumns(f, p.cfg.PSYWindows), nil
	case KindVolMA:
		return volMAColumns(f, p.cfg.VolMAWindows), nil
	default:
		return nil, fmt.Errorf("unknown indicator kind: %v", k)
	}
}

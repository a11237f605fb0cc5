package engine

import "github.com/piwi3910/RoomLoad/internal/model"

// Estimate holds unrounded loads in watts.
type Estimate struct {
	Lighting float64
	Sockets  float64
	Total    float64
}

// Estimator computes room loads from an injected load-factor table.
type Estimator struct {
	table model.LoadFactorTable
}

func NewEstimator(table model.LoadFactorTable) *Estimator {
	return &Estimator{table: table}
}

// Table returns the load-factor table in use.
func (e *Estimator) Table() model.LoadFactorTable {
	return e.table
}

// Estimate multiplies the area by the factors of typeCode, or by the DEFAULT
// factors when the code has no entry.
func (e *Estimator) Estimate(area float64, typeCode string) Estimate {
	f, _ := e.table.Lookup(typeCode)
	lighting := area * f.Lighting
	sockets := area * f.Sockets
	return Estimate{Lighting: lighting, Sockets: sockets, Total: lighting + sockets}
}

// WattsToKVA converts watts to kilovolt-amperes. A power factor outside
// (0, 1] is treated as 1.
func WattsToKVA(watts, pf float64) float64 {
	return watts / (1000 * normalizePF(pf))
}

// KVAToWatts converts kilovolt-amperes to watts. A power factor outside
// (0, 1] is treated as 1.
func KVAToWatts(kva, pf float64) float64 {
	return kva * 1000 * normalizePF(pf)
}

func normalizePF(pf float64) float64 {
	if pf <= 0 || pf > 1 {
		return 1
	}
	return pf
}

package indices

import "math"

// ReflectanceScale converts Sentinel-2 surface reflectance digital numbers
// to [0,1] reflectance.
const ReflectanceScale = 10000.0

// Semantic band names shared by the pixel layer and the band dictionary.
const (
	Blue  = "blue"
	Green = "green"
	Red   = "red"
	Red2  = "red2"
	NIR   = "NIR"
	SWIR1 = "SWIR1"
	SWIR2 = "SWIR2"
)

// DN holds the raw digital numbers of the seven bands used by the indices
// for one pixel.
type DN struct {
	Blue  float64
	Green float64
	Red   float64
	Red2  float64
	NIR   float64
	SWIR1 float64
	SWIR2 float64
}

// Reflectance is DN divided by ReflectanceScale. It can only be obtained
// from DN.Reflectance and has no way back to a scaling step, so the
// divide-by-10000 can never be applied twice.
type Reflectance struct {
	vars map[string]float64
}

func (d DN) vars() map[string]float64 {
	return map[string]float64{
		Blue:  d.Blue,
		Green: d.Green,
		Red:   d.Red,
		Red2:  d.Red2,
		NIR:   d.NIR,
		SWIR1: d.SWIR1,
		SWIR2: d.SWIR2,
	}
}

func (d DN) Reflectance() Reflectance {
	scaled := d.vars()
	for name, value := range scaled {
		scaled[name] = value / ReflectanceScale
	}
	return Reflectance{vars: scaled}
}

// Band returns the scaled value of a semantic band, NaN when unknown.
func (r Reflectance) Band(name string) float64 {
	value, ok := r.vars[name]
	if !ok {
		return math.NaN()
	}
	return value
}

// NormDiff is (x-y)/(x+y). A zero denominator is no-data (NaN).
func NormDiff(x, y float64) float64 {
	return Apply(OpDiv, x-y, x+y)
}

type Kind int

const (
	// NormalizedDifferenceKind indices operate on raw DN.
	NormalizedDifferenceKind Kind = iota
	// ExpressionKind indices operate on scaled reflectance.
	ExpressionKind
)

// Definition describes how one index is derived. For normalized
// differences A and B name the semantic bands; for expressions Expr is
// evaluated over scaled reflectance.
type Definition struct {
	Name string
	Kind Kind
	A, B string
	Expr Expr
}

var (
	evi = Mul(Const(2.5), Div(
		Sub(Var(NIR), Var(Red)),
		Add(Sub(Add(Var(NIR), Mul(Const(6), Var(Red))), Mul(Const(7.5), Var(Blue))), Const(1)),
	))
	evi2 = Mul(Const(2.5), Div(
		Sub(Var(NIR), Var(Red)),
		Add(Add(Var(NIR), Mul(Const(2.4), Var(Red))), Const(1)),
	))
	rervi = Div(Var(NIR), Var(Red2))
	revi2 = Mul(Const(2.5), Div(
		Sub(Var(NIR), Var(Red2)),
		Add(Add(Var(NIR), Mul(Const(2.4), Var(Red2))), Const(1)),
	))
)

// Definitions lists the indices in the order they are appended to an image.
// References: NDVI Rouse et al. 1974, EVI2 Jiang et al. 2008, RENDVI Chen et
// al. 2007, NDII Hunt & Qu 2013, RERVI Cao et al. 2016, RE-EVI2 Abdel-rahman
// et al. 2017.
var Definitions = []Definition{
	{Name: "ndvi", Kind: NormalizedDifferenceKind, A: NIR, B: Red},
	{Name: "gndvi", Kind: NormalizedDifferenceKind, A: NIR, B: Green},
	{Name: "ndwi", Kind: NormalizedDifferenceKind, A: NIR, B: SWIR2},
	{Name: "evi", Kind: ExpressionKind, Expr: evi},
	{Name: "evi2", Kind: ExpressionKind, Expr: evi2},
	{Name: "rendvi", Kind: NormalizedDifferenceKind, A: NIR, B: Red2},
	{Name: "ndii", Kind: NormalizedDifferenceKind, A: NIR, B: SWIR1},
	{Name: "rervi", Kind: ExpressionKind, Expr: rervi},
	{Name: "revi2", Kind: ExpressionKind, Expr: revi2},
}

// Names returns the index band names in Definitions order.
func Names() []string {
	names := make([]string, len(Definitions))
	for i, def := range Definitions {
		names[i] = def.Name
	}
	return names
}

// Values holds every index for one pixel.
type Values struct {
	NDVI   float64 `csv:"ndvi"`
	GNDVI  float64 `csv:"gndvi"`
	NDWI   float64 `csv:"ndwi"`
	EVI    float64 `csv:"evi"`
	EVI2   float64 `csv:"evi2"`
	RENDVI float64 `csv:"rendvi"`
	NDII   float64 `csv:"ndii"`
	RERVI  float64 `csv:"rervi"`
	REVI2  float64 `csv:"revi2"`
}

// Evaluate computes a single definition for one pixel.
func (def Definition) Evaluate(dn DN) float64 {
	if def.Kind == NormalizedDifferenceKind {
		raw := dn.vars()
		return NormDiff(raw[def.A], raw[def.B])
	}
	return def.Expr.Eval(dn.Reflectance().vars)
}

// Compute evaluates all nine indices for one pixel.
func Compute(dn DN) Values {
	raw := dn.vars()
	scaled := dn.Reflectance()
	return Values{
		NDVI:   NormDiff(raw[NIR], raw[Red]),
		GNDVI:  NormDiff(raw[NIR], raw[Green]),
		NDWI:   NormDiff(raw[NIR], raw[SWIR2]),
		EVI:    evi.Eval(scaled.vars),
		EVI2:   evi2.Eval(scaled.vars),
		RENDVI: NormDiff(raw[NIR], raw[Red2]),
		NDII:   NormDiff(raw[NIR], raw[SWIR1]),
		RERVI:  rervi.Eval(scaled.vars),
		REVI2:  revi2.Eval(scaled.vars),
	}
}

// Get returns the value of the named index.
func (v Values) Get(name string) (float64, bool) {
	switch name {
	case "ndvi":
		return v.NDVI, true
	case "gndvi":
		return v.GNDVI, true
	case "ndwi":
		return v.NDWI, true
	case "evi":
		return v.EVI, true
	case "evi2":
		return v.EVI2, true
	case "rendvi":
		return v.RENDVI, true
	case "ndii":
		return v.NDII, true
	case "rervi":
		return v.RERVI, true
	case "revi2":
		return v.REVI2, true
	}
	return 0, false
}

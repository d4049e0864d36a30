package models

// Behavior is the emotional-trading category assigned to a single session.
type Behavior string

const (
	BehaviorNormal         Behavior = "Normal"
	BehaviorPanicSelling   Behavior = "Panic Selling"
	BehaviorFOMOBuying     Behavior = "FOMO Buying"
	BehaviorOverconfidence Behavior = "Overconfidence"
)

// Behaviors lists all categories in evaluation order. Panic and FOMO are
// mutually exclusive by sign of the price change; the order is the documented
// tie-break when user-edited thresholds overlap.
var Behaviors = []Behavior{
	BehaviorPanicSelling,
	BehaviorFOMOBuying,
	BehaviorOverconfidence,
	BehaviorNormal,
}

// BehaviorRow is a FeatureRow with exactly one behavior label and a
// confidence score in [0,100]. Confidence is a strength indicator, not a
// probability; rows labeled Normal for lack of history carry confidence 0.
type BehaviorRow struct {
	FeatureRow
	Behavior   Behavior
	Confidence float64
}

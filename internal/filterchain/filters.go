package filterchain

// FilterID enumerates the supported text transforms.
type FilterID string

const (
	FilterSimplify  FilterID = "simplify"
	FilterFormalize FilterID = "formalize"
	FilterCasual    FilterID = "casual"
	FilterHumor     FilterID = "humor"
	FilterPoetic    FilterID = "poetic"
	FilterTechnical FilterID = "technical"
	FilterDramatic  FilterID = "dramatic"
	FilterCondense  FilterID = "condense"
	FilterExpand    FilterID = "expand"
	FilterArchaic   FilterID = "archaic"
)

// AllFilters lists every supported filter in catalog order.
var AllFilters = []FilterID{
	FilterSimplify,
	FilterFormalize,
	FilterCasual,
	FilterHumor,
	FilterPoetic,
	FilterTechnical,
	FilterDramatic,
	FilterCondense,
	FilterExpand,
	FilterArchaic,
}

var filterSet = func() map[FilterID]struct{} {
	set := make(map[FilterID]struct{}, len(AllFilters))
	for _, id := range AllFilters {
		set[id] = struct{}{}
	}
	return set
}()

// KnownFilter reports whether id names a supported transform.
func KnownFilter(id FilterID) bool {
	_, ok := filterSet[id]
	return ok
}

// Intensities lists the valid intensity steps.
var Intensities = []int{25, 50, 75, 100}

// ValidIntensity reports whether value is one of the supported steps.
func ValidIntensity(value int) bool {
	switch value {
	case 25, 50, 75, 100:
		return true
	default:
		return false
	}
}

// SnapIntensity rounds value to the nearest supported step. Values at or
// below zero snap to 25; values above 100 snap to 100.
func SnapIntensity(value int) int {
	if value <= 25 {
		return 25
	}
	if value >= 100 {
		return 100
	}
	snapped := ((value + 12) / 25) * 25
	if snapped < 25 {
		snapped = 25
	}
	if snapped > 100 {
		snapped = 100
	}
	return snapped
}

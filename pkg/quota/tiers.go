package quota

// TierLimits returns the preset limits for a tier. Selecting a tier
// overwrites all three limits; the tier label itself is not a constraint,
// and limits remain independently editable afterward.
func TierLimits(tier Tier) map[ResourceType]int64 {
	switch tier {
	case TierDeveloper:
		return map[ResourceType]int64{
			ResourcePlugins:   100,
			ResourcePipelines: 10,
			ResourceAPICalls:  Unlimited,
		}
	case TierPro:
		return map[ResourceType]int64{
			ResourcePlugins:   1000,
			ResourcePipelines: 100,
			ResourceAPICalls:  Unlimited,
		}
	case TierUnlimited:
		return map[ResourceType]int64{
			ResourcePlugins:   Unlimited,
			ResourcePipelines: Unlimited,
			ResourceAPICalls:  Unlimited,
		}
	default:
		// Unknown labels fall back to the developer preset.
		return TierLimits(TierDeveloper)
	}
}

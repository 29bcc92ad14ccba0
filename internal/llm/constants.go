package llm

// DiffTruncationMarker is appended to a diff cut at the configured bound. It
// is deliberately not valid unified-diff content so a truncated diff is
// always distinguishable from a genuine one.
const DiffTruncationMarker = "\n[diff truncated]"

// FallbackReviewText is posted when the completion endpoint fails and the
// degrade policy is active.
const FallbackReviewText = "Unable to generate automated review; please review manually."

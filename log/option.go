package log

// Option modifies the configuration of a [Logger] created by [Make],
// [Logger.Wrap], or [Config].
type Option func(*config)

package locale

// HostLanguage returns the language the host environment reports through
// the POSIX locale variables, in their precedence order.
func HostLanguage(getenv func(string) string) string {
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := getenv(k); v != "" {
			return v
		}
	}
	return ""
}

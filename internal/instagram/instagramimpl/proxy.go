package instagramimpl

func (ig *IgImpl) rotationEnabled() bool {
	return len(ig.proxies) > 0 && ig.Config.Proxy.Rotation
}

// applyNextProxy advances the round-robin cursor and points the underlying
// client at the next proxy in the pool.
func (ig *IgImpl) applyNextProxy() {
	ig.mu.Lock()
	if len(ig.proxies) == 0 {
		ig.mu.Unlock()
		return
	}
	proxy := ig.proxies[ig.cursor%len(ig.proxies)]
	ig.cursor++
	ig.mu.Unlock()

	if err := ig.Client.SetProxy(proxy, false, true); err != nil {
		ig.Logger.Warn("Failed to apply proxy", "proxy", proxy, "error", err)
		return
	}
	ig.Logger.Info("Using proxy", "proxy", proxy)
}

// activeProxy reports the most recently applied proxy, empty when the pool
// is not in use.
func (ig *IgImpl) activeProxy() string {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	if len(ig.proxies) == 0 || ig.cursor == 0 {
		return ""
	}
	return ig.proxies[(ig.cursor-1)%len(ig.proxies)]
}

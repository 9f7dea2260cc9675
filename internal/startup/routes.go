package startup

import (
	"slices"
	"strings"

	"dlna-server/internal/logging"

	"github.com/gorilla/mux"
)

// RouteInfo is one method/path pair registered on a router.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes lists every route on router, one entry per method. Routes
// without a method matcher are reported as "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tmpl, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: tmpl, Name: route.GetName()})
		}
		return nil
	})
	return routes, err
}

// getRouteGroup is the first path segment, or "root" for top-level paths.
func getRouteGroup(path string) string {
	first, _, nested := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if !nested {
		return "root"
	}
	return first
}

// LogHTTPRoutes prints the route table at debug level.
func LogHTTPRoutes(router *mux.Router, logStaticFiles bool) {
	section("HTTP")
	fields("media transfer logging", onOff(logStaticFiles))

	if !logging.IsDebugEnabled() {
		return
	}
	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("  walking routes: %v", err)
	}

	byGroup := make(map[string][]RouteInfo)
	for _, r := range routes {
		g := getRouteGroup(r.Path)
		byGroup[g] = append(byGroup[g], r)
	}
	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	slices.Sort(groups)

	logging.Debug("  %d routes", len(routes))
	for _, g := range groups {
		logging.Debug("  [%s]", g)
		for _, r := range byGroup[g] {
			logging.Debug("    %-7s %s", r.Method, r.Path)
		}
	}
}

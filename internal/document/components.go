package document

import "slices"

// Architecture component kinds. Each has a default icon, size and color.
const (
	KindDatabase      Kind = "database"
	KindCache         Kind = "cache"
	KindQueue         Kind = "queue"
	KindLoadBalancer  Kind = "load-balancer"
	KindGateway       Kind = "api-gateway"
	KindServer        Kind = "server"
	KindClient        Kind = "client"
	KindCDN           Kind = "cdn"
	KindStorage       Kind = "storage"
	KindFunction      Kind = "function"
	KindContainer     Kind = "container"
	KindUser          Kind = "user"
	KindFirewall      Kind = "firewall"
	KindDNS           Kind = "dns"
	KindMonitoring    Kind = "monitoring"
	KindMessageBroker Kind = "message-broker"
	KindSearch        Kind = "search"
	KindAuthService   Kind = "auth-service"
)

// ComponentSpec is the palette entry for an architecture component kind.
type ComponentSpec struct {
	Kind   Kind
	Label  string
	Icon   string // SVG path data, 24x24 design box
	Width  float64
	Height float64
	Color  string
}

var componentSpecs = map[Kind]ComponentSpec{
	KindDatabase: {
		Label: "Database", Width: 100, Height: 110, Color: "#2563eb",
		Icon: "M4 5C4 3.3 7.6 2 12 2C16.4 2 20 3.3 20 5V19C20 20.7 16.4 22 12 22C7.6 22 4 20.7 4 19Z M4 5C4 6.7 7.6 8 12 8C16.4 8 20 6.7 20 5",
	},
	KindCache: {
		Label: "Cache", Width: 100, Height: 100, Color: "#dc2626",
		Icon: "M13 2L4 14H11L10 22L20 9H13Z",
	},
	KindQueue: {
		Label: "Queue", Width: 140, Height: 80, Color: "#9333ea",
		Icon: "M2 7H22V17H2Z M7 7V17 M12 7V17 M17 7V17",
	},
	KindLoadBalancer: {
		Label: "Load Balancer", Width: 110, Height: 100, Color: "#0891b2",
		Icon: "M12 3V9 M12 9L4 15 M12 9L12 15 M12 9L20 15 M2 15H6V21H2Z M10 15H14V21H10Z M18 15H22V21H18Z",
	},
	KindGateway: {
		Label: "API Gateway", Width: 110, Height: 100, Color: "#ea580c",
		Icon: "M3 4H21V20H3Z M3 9H21 M8 14L6 16L8 18 M16 14L18 16L16 18",
	},
	KindServer: {
		Label: "Server", Width: 100, Height: 110, Color: "#475569",
		Icon: "M4 3H20V10H4Z M4 14H20V21H4Z M7 6.5H9 M7 17.5H9",
	},
	KindClient: {
		Label: "Client", Width: 110, Height: 90, Color: "#0f766e",
		Icon: "M3 4H21V16H3Z M8 20H16 M12 16V20",
	},
	KindCDN: {
		Label: "CDN", Width: 100, Height: 100, Color: "#16a34a",
		Icon: "M12 2C17.5 2 22 6.5 22 12C22 17.5 17.5 22 12 22C6.5 22 2 17.5 2 12C2 6.5 6.5 2 12 2Z M2 12H22 M12 2C14.5 5 14.5 19 12 22 M12 2C9.5 5 9.5 19 12 22",
	},
	KindStorage: {
		Label: "Object Storage", Width: 110, Height: 100, Color: "#ca8a04",
		Icon: "M3 7L12 3L21 7V17L12 21L3 17Z M3 7L12 11L21 7 M12 11V21",
	},
	KindFunction: {
		Label: "Function", Width: 100, Height: 100, Color: "#f97316",
		Icon: "M6 20L11 4H14 M8 11H15 M15 20L18 14 M18 20L15 14",
	},
	KindContainer: {
		Label: "Container", Width: 110, Height: 100, Color: "#0284c7",
		Icon: "M2 10H22V18H2Z M4 6H8V10H4Z M9 6H13V10H9Z M14 6H18V10H14Z",
	},
	KindUser: {
		Label: "User", Width: 90, Height: 100, Color: "#4f46e5",
		Icon: "M12 3C14.2 3 16 4.8 16 7C16 9.2 14.2 11 12 11C9.8 11 8 9.2 8 7C8 4.8 9.8 3 12 3Z M4 21C4 16.6 7.6 13 12 13C16.4 13 20 16.6 20 21Z",
	},
	KindFirewall: {
		Label: "Firewall", Width: 100, Height: 100, Color: "#b91c1c",
		Icon: "M3 4H21V20H3Z M3 9H21 M3 14H21 M9 4V9 M15 9V14 M9 14V20",
	},
	KindDNS: {
		Label: "DNS", Width: 100, Height: 100, Color: "#7c3aed",
		Icon: "M4 4H20V8H4Z M4 10H20V14H4Z M4 16H20V20H4Z",
	},
	KindMonitoring: {
		Label: "Monitoring", Width: 110, Height: 100, Color: "#059669",
		Icon: "M2 12H6L9 4L15 20L18 12H22",
	},
	KindMessageBroker: {
		Label: "Message Broker", Width: 120, Height: 100, Color: "#c026d3",
		Icon: "M5 5H9V9H5Z M15 5H19V9H15Z M5 15H9V19H5Z M15 15H19V19H15Z M9 9L15 15 M15 9L9 15",
	},
	KindSearch: {
		Label: "Search", Width: 100, Height: 100, Color: "#65a30d",
		Icon: "M10 3C13.9 3 17 6.1 17 10C17 13.9 13.9 17 10 17C6.1 17 3 13.9 3 10C3 6.1 6.1 3 10 3Z M15 15L21 21",
	},
	KindAuthService: {
		Label: "Auth Service", Width: 110, Height: 100, Color: "#be123c",
		Icon: "M6 11H18V21H6Z M8 11V7C8 4.8 9.8 3 12 3C14.2 3 16 4.8 16 7V11",
	},
}

func init() {
	for k, spec := range componentSpecs {
		spec.Kind = k
		componentSpecs[k] = spec
	}
}

// Component returns the palette entry for an architecture component kind.
func Component(kind Kind) (ComponentSpec, bool) {
	spec, ok := componentSpecs[kind]
	return spec, ok
}

// ComponentKinds lists every architecture component kind in a stable order.
func ComponentKinds() []Kind {
	kinds := make([]Kind, 0, len(componentSpecs))
	for k := range componentSpecs {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

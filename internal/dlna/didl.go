package dlna

import "encoding/xml"

const (
	didlNS = "urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/"
	dcNS   = "http://purl.org/dc/elements/1.1/"
	upnpNS = "urn:schemas-upnp-org:metadata-1-0/upnp/"
)

// DIDL-Lite document returned as a Browse result.
type didlLite struct {
	XMLName    xml.Name    `xml:"DIDL-Lite"`
	NS         string      `xml:"xmlns,attr"`
	DC         string      `xml:"xmlns:dc,attr"`
	UPnP       string      `xml:"xmlns:upnp,attr"`
	Containers []container `xml:"container"`
	Items      []item      `xml:"item"`
}

type object struct {
	ID         string `xml:"id,attr"`
	ParentID   string `xml:"parentID,attr"`
	Restricted bool   `xml:"restricted,attr"`
	Title      string `xml:"dc:title"`
	Class      string `xml:"upnp:class"`
}

type container struct {
	object
}

type item struct {
	object
	Res []resource `xml:"res"`
}

type resource struct {
	ProtocolInfo string `xml:"protocolInfo,attr"`
	URL          string `xml:",chardata"`
}

func newDIDL() didlLite {
	return didlLite{NS: didlNS, DC: dcNS, UPnP: upnpNS}
}

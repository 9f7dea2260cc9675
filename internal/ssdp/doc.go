// Package ssdp announces the media server on the local network.
//
// A Beacon multicasts a burst of NOTIFY ssdp:alive messages to
// 239.255.255.250:1900 right away and then on every interval: one for the
// device UDN and one each for upnp:rootdevice, the MediaServer device type
// and the ConnectionManager and ContentDirectory services. Each burst can be
// repeated to ride out UDP loss. When its context ends the beacon sends a
// final ssdp:byebye burst so renderers drop the server immediately instead
// of waiting for max-age to run out.
//
// Announcement failures are logged and counted but never stop the beacon;
// the next tick simply tries again.
package ssdp

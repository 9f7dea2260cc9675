// Package dlna implements the UPnP side of the media server: the device and
// service description documents and the ContentDirectory Browse action.
//
// Browse lists the children of one object as DIDL-Lite. Children are
// partitioned into containers (directories), items (videos) and support
// files (images and subtitles). Containers and items are ordered naturally
// by id, so "ep2" comes before "ep10". Each video gets a resource pointing
// at /video/<id>, with the MIME type of the requesting device's profile,
// plus a full-size and a thumbnail resource for every image that shares its
// prefix ("show/ep1.mkv" picks up "show/ep1.jpg"). Subtitles are recognized
// but not offered.
//
// Malformed or unknown actions are answered with a SOAP-ENV:Client fault
// and HTTP 200, as UPnP control points expect. An object that does not
// exist is not a fault: the lookup error is returned to the router, which
// answers 404.
//
// Results are not paginated. NumberReturned, TotalMatches and UpdateID are
// always 1.
package dlna

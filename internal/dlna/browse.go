package dlna

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"path"
	"slices"
	"sort"
	"strings"

	"dlna-server/internal/devices"
	"dlna-server/internal/media"
	"dlna-server/internal/mediatypes"

	"github.com/maruel/natural"
)

const thumbnailProtocol = "http-get:*:image/jpeg:DLNA.ORG_PN=JPEG_TN"

// Service answers ContentDirectory Browse calls over a media tree.
type Service struct {
	tree    media.Tree
	baseURI string
}

// NewService creates a Service. baseURI prefixes every resource URL and has
// no trailing slash.
func NewService(tree media.Tree, baseURI string) *Service {
	return &Service{
		tree:    tree,
		baseURI: strings.TrimSuffix(baseURI, "/"),
	}
}

// BrowseResult is the outcome of one Browse call.
type BrowseResult struct {
	Containers int
	Items      int
	// Body is the complete SOAP response envelope.
	Body []byte
}

// Objects is the number of DIDL-Lite objects in the result.
func (r *BrowseResult) Objects() int {
	return r.Containers + r.Items
}

// Browse lists the children of objectID. Lookup failures are returned as
// is; media.ErrNotFound is not turned into a fault.
func (s *Service) Browse(_ context.Context, objectID string, profile devices.Profile) (*BrowseResult, error) {
	object, err := s.tree.Lookup(objectID)
	if err != nil {
		return nil, err
	}

	children, err := object.Children()
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", objectID, err)
	}

	var containers, items, support []media.Entry
	for _, entry := range children {
		switch entry.FileType() {
		case mediatypes.FileTypeDirectory:
			containers = append(containers, entry)
		case mediatypes.FileTypeVideo:
			items = append(items, entry)
		case mediatypes.FileTypeImage, mediatypes.FileTypeSubtitles:
			support = append(support, entry)
		}
	}

	sortNatural(containers)
	sortNatural(items)
	// Byte order keeps every prefix group contiguous for the search in item;
	// each attached group is put in natural order there.
	slices.SortFunc(support, func(a, b media.Entry) int {
		return strings.Compare(a.ID(), b.ID())
	})

	doc := newDIDL()
	for _, entry := range containers {
		doc.Containers = append(doc.Containers, container{object: newObject(entry)})
	}
	for _, entry := range items {
		doc.Items = append(doc.Items, s.item(entry, support, profile))
	}

	didl, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding DIDL-Lite: %w", err)
	}

	body, err := encodeEnvelope(browseResponse{
		NS:             ContentDirectoryType,
		Result:         string(didl),
		NumberReturned: 1,
		TotalMatches:   1,
		UpdateID:       1,
	})
	if err != nil {
		return nil, err
	}

	return &BrowseResult{
		Containers: len(doc.Containers),
		Items:      len(doc.Items),
		Body:       body,
	}, nil
}

func sortNatural(entries []media.Entry) {
	slices.SortFunc(entries, func(a, b media.Entry) int {
		switch {
		case natural.Less(a.ID(), b.ID()):
			return -1
		case natural.Less(b.ID(), a.ID()):
			return 1
		default:
			return 0
		}
	})
}

func newObject(entry media.Entry) object {
	return object{
		ID:         entry.ID(),
		ParentID:   entry.ParentID(),
		Restricted: true,
		Title:      entry.Title(),
		Class:      entry.DLNAClass(),
	}
}

func (s *Service) item(entry media.Entry, support []media.Entry, profile devices.Profile) item {
	it := item{object: newObject(entry)}
	it.Res = append(it.Res, resource{
		ProtocolInfo: "http-get:*:" + profile.MimeType + ":*",
		URL:          s.url("video", entry.ID()),
	})

	prefix := entry.Prefix()
	start := sort.Search(len(support), func(i int) bool {
		return support[i].ID() >= prefix
	})
	end := start
	for end < len(support) && strings.HasPrefix(support[end].ID(), prefix) {
		end++
	}
	// A nested prefix group may sit inside this run, so the shared slice
	// keeps its byte order.
	attached := slices.Clone(support[start:end])
	sortNatural(attached)

	for _, sup := range attached {
		switch sup.FileType() {
		case mediatypes.FileTypeImage:
			it.Res = append(it.Res,
				resource{ProtocolInfo: "http-get:*:" + supportMime(sup) + ":*", URL: s.url("files", sup.ID())},
				resource{ProtocolInfo: thumbnailProtocol, URL: s.url("thumbs", sup.ID())},
			)
		case mediatypes.FileTypeSubtitles:
			// Recognized but not offered yet.
		}
	}
	return it
}

// supportMime matches the Content-Type GET /files/ sends for entry.
func supportMime(entry media.Entry) string {
	return mediatypes.GetMimeType(strings.ToLower(path.Ext(entry.ID())))
}

func (s *Service) url(route, id string) string {
	return s.baseURI + "/" + route + "/" + url.PathEscape(id)
}

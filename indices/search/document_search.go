package search

import (
	"encoding/json"
	"fmt"
	"gesdoc/client/es"
	"gesdoc/domain"
	"gesdoc/indices"
	"gesdoc/session"
	"strings"
)

var (
	SearchDocumentsFunc = SearchDocuments
)

func SearchDocuments(q domain.DocumentQuery, s *session.Session) ([]domain.Document, error) {
	visibleTenants := s.VisibleTenants()
	if len(visibleTenants) == 0 {
		return []domain.Document{}, nil
	}

	filters := make([]es.H, 0, 4)
	if q.TenantID > 0 {
		filters = append(filters, es.H{"term": es.H{"tenantId": q.TenantID}})
	}
	filters = append(filters, es.H{"terms": es.H{"tenantId": visibleTenants}})

	if q.Name != "" {
		filters = append(filters, es.H{"match": es.H{"name": es.H{"query": q.Name, "operator": "AND"}}})
	}
	if q.StatusID > 0 {
		filters = append(filters, es.H{"term": es.H{"statusId": q.StatusID}})
	}

	sorts := make([]es.H, 0, 1)
	sorts = append(sorts, es.H{"createTime": es.H{"order": "desc"}})

	root := es.H{"bool": es.H{"filter": filters}}
	r, err := es.SearchFunc(indices.DocumentIndexName, es.H{"size": 10000, "query": root, "sort": sorts}, s)
	if err != nil {
		return nil, err
	}

	documents := make([]domain.Document, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		d := domain.Document{}
		if err := json.NewDecoder(strings.NewReader(string(hit.Source))).Decode(&d); err != nil {
			return nil, fmt.Errorf(string(hit.Source))
		}
		documents = append(documents, d)
	}

	return documents, nil
}

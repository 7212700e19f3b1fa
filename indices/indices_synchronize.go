package indices

import (
	"context"
	"fmt"
	"gesdoc/account"
	"gesdoc/authority"
	"gesdoc/bizerror"
	"gesdoc/domain"
	"gesdoc/domain/docs"
	"gesdoc/event"
	"gesdoc/session"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	DocumentIndexEventHandlerName = "documentIndexer"
	indexRobot                    = &session.Session{
		Context:  context.Background(),
		Identity: session.Identity{ID: 10, Name: "index-robot"},
		Perms:    authority.Permissions{account.SystemAdminRole},
	}

	lock    sync.Mutex
	running bool

	IndicesFullSyncFunc    = IndicesFullSync
	ScheduleNewSyncRunFunc = ScheduleNewSyncRun
)

func ScheduleNewSyncRun(s *session.Session) (bool, error) {
	if !s.Perms.HasRole(account.SystemAdminRole) {
		return false, bizerror.ErrForbidden
	}

	lock.Lock()
	if running {
		lock.Unlock()
		return false, nil
	}
	running = true
	lock.Unlock()

	waitRunning := sync.WaitGroup{}
	waitRunning.Add(1)
	go func() {
		waitRunning.Done()
		defer func() {
			lock.Lock()
			running = false
			lock.Unlock()
		}()
		IndicesFullSyncFunc()
	}()
	waitRunning.Wait()
	return true, nil
}

var (
	SyncBatchSize = 500
	// one page per second, full sync must not starve the live index traffic
	syncPageLimiter = rate.NewLimiter(rate.Limit(1), 1)
)

func IndicesFullSync() (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			e, ok := ret.(error)
			if ok {
				err = e
			} else {
				err = fmt.Errorf("error on indices full sync: %v", ret)
			}
		}
	}()

	page := 1
	for {
		if err := syncPageLimiter.Wait(context.Background()); err != nil {
			return err
		}

		documents, err := docs.LoadDocumentsFunc(page, SyncBatchSize)
		if err != nil {
			logrus.Warnf("indices fully sync: error on retrieve documents(page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
			page++
			continue
		}

		if len(documents) == 0 {
			logrus.Infof("indices fully sync: there are no more documents to index")
			return nil // loop exit
		}

		if err := IndexDocuments(documents, indexRobot); err != nil {
			logrus.Warnf("indices fully sync: error on index documents(page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
		}
		page++
	}
}

func IndexDocumentEventHandle(e *event.EventRecord) *event.EventHandleResult {
	if e.SourceType != event.SourceTypeDocument {
		return nil
	}

	doc, err := docs.DetailDocumentFunc(e.Event.SourceId, indexRobot)
	if err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("detail document when index document %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: DocumentIndexEventHandlerName,
		}
	}
	if err := IndexDocuments([]domain.Document{*doc}, indexRobot); err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("index document %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: DocumentIndexEventHandlerName,
		}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: DocumentIndexEventHandlerName}
}

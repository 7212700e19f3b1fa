package main

import (
	"context"
	"gesdoc/account"
	"gesdoc/bizerror"
	"gesdoc/client/es"
	"gesdoc/domain"
	"gesdoc/event"
	"gesdoc/indices"
	"gesdoc/infra/tracing"
	"gesdoc/misc"
	"gesdoc/notification"
	"gesdoc/persistence"
	"gesdoc/servehttp"
	"gesdoc/session"
	"gesdoc/sessions"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jaegerlog "github.com/uber/jaeger-client-go/log"
	"github.com/uber/jaeger-lib/metrics"
)

func main() {
	logrus.Infoln("service start")

	tracingCloser := buildTracer()
	if tracingCloser != nil {
		defer tracingCloser.Close()
	}

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		logrus.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			logrus.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		logrus.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB(context.Background()).AutoMigrate(
		&account.User{},
		&domain.Tenant{}, &domain.TenantMember{},
		&domain.Status{}, &domain.WorkflowEdge{},
		&domain.Document{}, &domain.ApprovalRequest{}, &domain.HistoryEntry{},
		&event.EventRecord{}).Error
	if err != nil {
		logrus.Fatalf("database migration failed %v\n", err)
	}

	es.ActiveESClient = es.CreateClientFromEnv()

	event.EventHandlers = append(event.EventHandlers,
		notification.DocumentNotificationHandle,
		indices.IndexDocumentEventHandle)

	engine := gin.Default()
	engine.Use(bizerror.ErrorHandling(), tracing.TracingIngress())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, misc.GetServiceName())
	})

	sessions.RegisterSessionsHandler(engine)

	secured := []gin.HandlerFunc{session.SimpleAuthFilter()}
	servehttp.RegisterUsersRestAPI(engine, secured...)
	servehttp.RegisterTenantsRestAPI(engine, secured...)
	servehttp.RegisterWorkflowRestAPI(engine, secured...)
	servehttp.RegisterDocumentsRestAPI(engine, secured...)
	servehttp.RegisterApprovalsRestAPI(engine, secured...)
	servehttp.RegisterDocumentSearchRestAPI(engine, secured...)
	indices.RegisterIndicesRestAPI(engine, secured...)

	if err := engine.Run(":80"); err != nil {
		panic(err)
	}
}

func buildTracer() io.Closer {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		logrus.Warnf("unable to parse jaeger config from env %v\n", err)
		return nil
	}
	cfg.ServiceName = misc.GetServiceName()

	tracer, closer, err := cfg.NewTracer(
		jaegercfg.Logger(jaegerlog.StdLogger),
		jaegercfg.Metrics(metrics.NullFactory),
	)
	if err != nil {
		logrus.Warnf("unable to build jaeger tracer %v\n", err)
		return nil
	}
	opentracing.SetGlobalTracer(tracer)
	return closer
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas Prometheus del backend. Viven en un paquete standalone para
// evitar ciclos de import entre el ledger (raft) y los paquetes HTTP.

var (
	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vetclinic_login_attempts_total",
		Help: "Intentos de login por resultado (ok, bad_credentials, locked, totp_setup, totp_required)",
	}, []string{"outcome"})

	AccountLockouts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vetclinic_account_lockouts_total",
		Help: "Cuentas bloqueadas por exceso de intentos fallidos",
	})

	LedgerSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vetclinic_ledger_submissions_total",
		Help: "Transacciones enviadas al ledger por operación y resultado",
	}, []string{"op", "result"})

	RaftApplyLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vetclinic_raft_apply_latency_ms",
		Help:    "Latencia de raft.Apply en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	RaftLeadershipChanges = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vetclinic_raft_leadership_changes_total",
		Help: "Cambios de rol a leader del nodo de ledger",
	})

	RaftLogSizeBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vetclinic_raft_log_size_bytes",
		Help: "Tamaño en bytes del log/stable del ledger (BoltDB)",
	})
)

// Register registra todas las métricas en el registry dado (default si nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		LoginAttempts,
		AccountLockouts,
		LedgerSubmissions,
		RaftApplyLatency,
		RaftLeadershipChanges,
		RaftLogSizeBytes,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

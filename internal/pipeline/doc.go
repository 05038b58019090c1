// Package pipeline deploys one reverse-proxy site as a guarded sequence of
// steps.
//
// # States
//
//	Init → SystemValidated → ConfigCaptured → ConfigValidated →
//	ConfigGenerated → ConfigWritten → SiteEnabled → ConfigTested →
//	Reloaded → {Certified | CertSkipped} → Complete
//
// Steps up to ConfigGenerated only read. A failure there aborts the run
// with nothing touched. ConfigWritten is the commit point: from then on a
// failure in SiteEnabled, ConfigTested or Reloaded rolls the run back to
// RolledBack by disabling the link and then deleting the definition (or
// restoring the definition the run replaced). Rollback is best-effort;
// its errors are logged and listed in the report, never returned.
//
// Certification happens only after the reload. Declining, a missing
// certbot, or a failed issuance leaves the plaintext site live and ends
// in CertSkipped.
//
// # Usage
//
//	p := pipeline.New(pipeline.Deps{
//		Validator:    engine,
//		Driver:       drv,
//		Certificates: certbot,
//		Source:       pipeline.StaticSource(raw),
//		Prompter:     prompter,
//		Reporter:     printer,
//		Logger:       log,
//	}, pipeline.Options{SSL: pipeline.SSLAsk, Limits: cfg.Proxy})
//
//	rep := p.Run(ctx)
//
// Cancelling ctx stops the run before the next step. Nothing is rolled
// back; Report.Committed lists what was left on disk.
package pipeline

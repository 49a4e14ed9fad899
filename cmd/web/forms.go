package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"merchanthaus.com/web/internal/flash"
	"merchanthaus.com/web/internal/forms"
	handlersPkg "merchanthaus.com/web/internal/handlers"
	mw "merchanthaus.com/web/internal/middleware"
	"merchanthaus.com/web/internal/observability"
)

const defaultDeliveryTimeout = 15 * time.Second

// formRoute binds a schema to its public page.
type formRoute struct {
	Path       string
	Schema     *forms.Schema
	SuccessKey string
}

var formRoutes = []formRoute{
	{Path: "/contact", Schema: forms.ContactSchema, SuccessKey: "toast.sent"},
	{Path: "/quote", Schema: forms.QuoteSchema, SuccessKey: "toast.sent"},
	{Path: "/apply", Schema: forms.MerchantApplicationSchema, SuccessKey: "toast.application"},
}

func (a *app) instance(r *http.Request, fr formRoute) *forms.Instance {
	return a.registry.Instance(mw.GetSession(r).ID, fr.Schema, a.transports[fr.Schema.Name])
}

// formGet renders the empty form. Visiting the page again after a success starts a new
// submission; a pending success flash from a redirect shows the confirmation dialog.
func (a *app) formGet(fr formRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst := a.instance(r, fr)
		if inst.State() == forms.Succeeded {
			_ = inst.Reset()
		}
		vm := a.formPage(w, r, fr, inst.Values(), nil)
		vm.Form.Busy = inFlight(inst.State())
		if vm.Flash != nil && vm.Flash.Kind == flash.KindSuccess {
			vm.Form.Submitted = true
		}
		a.render.renderPage(w, r, "form", http.StatusOK, vm)
	}
}

// formPost submits through the session's instance and maps the outcome onto the page:
// success clears the form and shows the dialog, validation failures answer 422 with
// inline errors, delivery failures answer 502 with the input kept.
func (a *app) formPost(fr formRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := observability.FromContext(r.Context()).With(zap.String("form", fr.Schema.Name))
		if err := r.ParseForm(); err != nil {
			mw.WriteError(w, r, http.StatusBadRequest, "invalid form")
			return
		}
		sub := fr.Schema.FromValues(r.PostForm)
		inst := a.instance(r, fr)
		if inst.State() == forms.Succeeded {
			_ = inst.Reset()
		}

		// a started delivery outlives the visitor's connection
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), a.deliveryTimeout())
		err := inst.Submit(ctx, sub)
		cancel()
		htmx := mw.IsHTMX(r.Context())

		if err == nil {
			logger.Info("form submitted", zap.Bool("honeypot", sub.Honeypot()))
			if !htmx {
				a.flashes.Write(w, flash.Success(fr.SuccessKey))
				http.Redirect(w, r, fr.Path, http.StatusSeeOther)
				return
			}
			vm := a.formPage(w, r, fr, nil, nil)
			vm.Form.Submitted = true
			vm.Form.State = inst.State().String()
			vm.Flash = &flash.Notice{Kind: flash.KindSuccess, Key: fr.SuccessKey}
			mw.HXTrigger(w, "form:submitted", fr.Schema.Name)
			a.respondForm(w, r, http.StatusOK, vm)
			return
		}

		var (
			status = http.StatusInternalServerError
			values = sub
			errs   forms.Errors
			toast  = "toast.failed"
			verr   *forms.ValidationError
		)
		switch {
		case errors.As(err, &verr):
			status, errs, toast = http.StatusUnprocessableEntity, verr.Errors, "toast.invalid"
			logger.Info("form invalid", zap.Strings("fields", verr.Errors.Fields()))
		case errors.Is(err, forms.ErrTransport):
			status, values = http.StatusBadGateway, inst.Values()
			logger.Warn("form delivery failed", zap.Error(err))
		case errors.Is(err, forms.ErrSubmissionInFlight), errors.Is(err, forms.ErrAlreadySubmitted):
			status, toast = http.StatusConflict, "form.busy"
			logger.Info("form submission refused", zap.Error(err))
		default:
			logger.Error("form submit", zap.Error(err))
		}

		vm := a.formPage(w, r, fr, values, errs)
		vm.Form.Failed = errors.Is(err, forms.ErrTransport)
		vm.Form.Busy = status == http.StatusConflict
		vm.Form.State = inst.State().String()
		vm.Flash = &flash.Notice{Kind: flash.KindError, Key: toast}
		a.respondForm(w, r, status, vm)
	}
}

func (a *app) formPage(w http.ResponseWriter, r *http.Request, fr formRoute, values forms.Submission, errs forms.Errors) handlersPkg.PageData {
	lang := mw.Lang(r)
	form := handlersPkg.NewFormView(a.bundle, lang, fr.Schema, fr.Path, values, errs)
	form.CSRFToken = mw.CSRFToken(r)
	form.State = forms.Idle.String()
	vm := a.basePage(w, r, form.Title, map[string]string{fr.Path: form.Title})
	vm.Form = form
	return vm
}

// respondForm swaps just the form for htmx and renders the full page otherwise.
func (a *app) respondForm(w http.ResponseWriter, r *http.Request, status int, vm handlersPkg.PageData) {
	if mw.IsHTMX(r.Context()) {
		vm.Fragment = true
		a.render.renderTemplate(w, r, "form", status, vm)
		return
	}
	a.render.renderPage(w, r, "form", status, vm)
}

func (a *app) deliveryTimeout() time.Duration {
	if a.cfg.Forms.Timeout > 0 {
		return a.cfg.Forms.Timeout
	}
	return defaultDeliveryTimeout
}

func inFlight(s forms.State) bool { return s == forms.Validating || s == forms.Submitting }

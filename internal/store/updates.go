// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/olegiv/agrisite/internal/model"
)

// ErrUnknownSection is returned by DecodeSection for unknown section names.
var ErrUnknownSection = errors.New("store: unknown section")

// Update replaces one top-level section of the document. The set of
// updates is closed: each section has exactly one typed update.
type Update interface {
	apply(d *model.SiteData)
	// Section returns the JSON name of the section the update replaces.
	Section() string
}

// SetHome replaces the home section.
type SetHome struct{ Home model.HomeContent }

// SetAbout replaces the about section.
type SetAbout struct{ About model.AboutContent }

// SetServicesPage replaces the services page.
type SetServicesPage struct{ ServicesPage model.ServicesPage }

// SetContact replaces the contact section.
type SetContact struct{ Contact model.ContactInfo }

// SetUsers replaces the user list.
type SetUsers struct{ Users []model.User }

// SetBlog replaces the blog post list.
type SetBlog struct{ Blog []model.BlogPost }

// SetTestimonials replaces the testimonial list.
type SetTestimonials struct{ Testimonials []model.Testimonial }

// SetKnowledgeResources replaces the knowledge hub entries.
type SetKnowledgeResources struct{ Resources []model.KnowledgeResource }

// SetSubscribers replaces the subscriber list.
type SetSubscribers struct{ Subscribers []model.Subscriber }

// SetContactMessages replaces the contact message list.
type SetContactMessages struct{ Messages []model.ContactMessage }

// SetTrafficStats replaces the page view counters.
type SetTrafficStats struct{ Stats model.TrafficStats }

// SetChatHistory replaces the stored chat sessions.
type SetChatHistory struct{ Sessions []model.ChatSession }

// SetSoilLabHistory replaces the soil lab records.
type SetSoilLabHistory struct{ Records []model.SoilAnalysisRecord }

// ReplaceAll replaces every section.
type ReplaceAll struct{ Data model.SiteData }

func (u SetHome) apply(d *model.SiteData)  { d.Home = u.Home.Clone() }
func (u SetAbout) apply(d *model.SiteData) { d.About = u.About.Clone() }
func (u SetServicesPage) apply(d *model.SiteData) {
	d.ServicesPage = u.ServicesPage.Clone()
}
func (u SetContact) apply(d *model.SiteData)      { d.Contact = u.Contact }
func (u SetUsers) apply(d *model.SiteData)        { d.Users = nonNil(u.Users) }
func (u SetBlog) apply(d *model.SiteData)         { d.Blog = nonNil(u.Blog) }
func (u SetTestimonials) apply(d *model.SiteData) { d.Testimonials = nonNil(u.Testimonials) }
func (u SetKnowledgeResources) apply(d *model.SiteData) {
	d.KnowledgeResources = nonNil(u.Resources)
}
func (u SetSubscribers) apply(d *model.SiteData)     { d.Subscribers = nonNil(u.Subscribers) }
func (u SetContactMessages) apply(d *model.SiteData) { d.ContactMessages = nonNil(u.Messages) }
func (u SetTrafficStats) apply(d *model.SiteData)    { d.TrafficStats = statsOrEmpty(u.Stats) }
func (u SetChatHistory) apply(d *model.SiteData) {
	d.ChatHistory = make([]model.ChatSession, len(u.Sessions))
	for i, s := range u.Sessions {
		d.ChatHistory[i] = s.Clone()
	}
}
func (u SetSoilLabHistory) apply(d *model.SiteData) {
	d.SoilLabHistory = make([]model.SoilAnalysisRecord, len(u.Records))
	for i, r := range u.Records {
		d.SoilLabHistory[i] = r.Clone()
	}
}
func (u ReplaceAll) apply(d *model.SiteData) { *d = u.Data.Clone() }

func (SetHome) Section() string               { return "home" }
func (SetAbout) Section() string              { return "about" }
func (SetServicesPage) Section() string       { return "servicesPage" }
func (SetContact) Section() string            { return "contact" }
func (SetUsers) Section() string              { return "users" }
func (SetBlog) Section() string               { return "blog" }
func (SetTestimonials) Section() string       { return "testimonials" }
func (SetKnowledgeResources) Section() string { return "knowledgeResources" }
func (SetSubscribers) Section() string        { return "subscribers" }
func (SetContactMessages) Section() string    { return "contactMessages" }
func (SetTrafficStats) Section() string       { return "trafficStats" }
func (SetChatHistory) Section() string        { return "chatHistory" }
func (SetSoilLabHistory) Section() string     { return "soilLabHistory" }
func (ReplaceAll) Section() string            { return "*" }

// nonNil copies s, turning nil into an empty slice so the section
// serializes as [] rather than null.
func nonNil[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func statsOrEmpty(s model.TrafficStats) model.TrafficStats {
	if s == nil {
		return model.TrafficStats{}
	}
	return maps.Clone(s)
}

// Sections lists the section names accepted by DecodeSection.
var Sections = []string{
	"home", "about", "servicesPage", "contact", "users", "blog", "testimonials",
	"knowledgeResources", "subscribers", "contactMessages", "trafficStats",
	"chatHistory", "soilLabHistory",
}

// DecodeSection builds the typed update for a section from its JSON body.
// Unknown fields are rejected so a mistyped payload never reaches storage.
func DecodeSection(name string, body []byte) (Update, error) {
	var (
		u   Update
		err error
	)
	switch name {
	case "home":
		var v model.HomeContent
		err = decodeStrictInto(body, &v)
		u = SetHome{Home: v}
	case "about":
		var v model.AboutContent
		err = decodeStrictInto(body, &v)
		u = SetAbout{About: v}
	case "servicesPage":
		var v model.ServicesPage
		err = decodeStrictInto(body, &v)
		u = SetServicesPage{ServicesPage: v}
	case "contact":
		var v model.ContactInfo
		err = decodeStrictInto(body, &v)
		u = SetContact{Contact: v}
	case "users":
		var v []model.User
		err = decodeStrictInto(body, &v)
		u = SetUsers{Users: v}
	case "blog":
		var v []model.BlogPost
		err = decodeStrictInto(body, &v)
		u = SetBlog{Blog: v}
	case "testimonials":
		var v []model.Testimonial
		err = decodeStrictInto(body, &v)
		u = SetTestimonials{Testimonials: v}
	case "knowledgeResources":
		var v []model.KnowledgeResource
		err = decodeStrictInto(body, &v)
		u = SetKnowledgeResources{Resources: v}
	case "subscribers":
		var v []model.Subscriber
		err = decodeStrictInto(body, &v)
		u = SetSubscribers{Subscribers: v}
	case "contactMessages":
		var v []model.ContactMessage
		err = decodeStrictInto(body, &v)
		u = SetContactMessages{Messages: v}
	case "trafficStats":
		var v model.TrafficStats
		err = decodeStrictInto(body, &v)
		u = SetTrafficStats{Stats: v}
	case "chatHistory":
		var v []model.ChatSession
		err = decodeStrictInto(body, &v)
		u = SetChatHistory{Sessions: v}
	case "soilLabHistory":
		var v []model.SoilAnalysisRecord
		err = decodeStrictInto(body, &v)
		u = SetSoilLabHistory{Records: v}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return u, nil
}

func decodeStrictInto(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the persisted site document and every record type
// stored inside it: content sections, users, blog posts, chat sessions,
// soil lab records and traffic counters.
package model

import "maps"

// Page identifiers used as trafficStats keys.
const (
	PageHome      = "HOME"
	PageAbout     = "ABOUT"
	PageServices  = "SERVICES"
	PageBlog      = "BLOG"
	PageContact   = "CONTACT"
	PageKnowledge = "KNOWLEDGE"
	PageSoilLab   = "SOIL_LAB"
)

// Pages lists every known page identifier in navigation order.
var Pages = []string{PageHome, PageAbout, PageServices, PageBlog, PageContact, PageKnowledge, PageSoilLab}

// IsPage reports whether id is a known page identifier.
func IsPage(id string) bool {
	for _, p := range Pages {
		if p == id {
			return true
		}
	}
	return false
}

// SiteData is the aggregate root persisted under a single storage key.
type SiteData struct {
	Home               HomeContent          `json:"home"`
	About              AboutContent         `json:"about"`
	ServicesPage       ServicesPage         `json:"servicesPage"`
	Contact            ContactInfo          `json:"contact"`
	Users              []User               `json:"users"`
	Blog               []BlogPost           `json:"blog"`
	Testimonials       []Testimonial        `json:"testimonials"`
	KnowledgeResources []KnowledgeResource  `json:"knowledgeResources"`
	Subscribers        []Subscriber         `json:"subscribers"`
	ContactMessages    []ContactMessage     `json:"contactMessages"`
	TrafficStats       TrafficStats         `json:"trafficStats"`
	ChatHistory        []ChatSession        `json:"chatHistory"`
	SoilLabHistory     []SoilAnalysisRecord `json:"soilLabHistory"`
}

// TrafficStats maps a page identifier to its view counter.
type TrafficStats map[string]int64

// HomeContent is the landing page content block.
type HomeContent struct {
	HeroTitle    string    `json:"heroTitle"`
	HeroSubtitle string    `json:"heroSubtitle"`
	HeroImage    string    `json:"heroImage"`
	CTAText      string    `json:"ctaText"`
	Features     []Feature `json:"features"`
	Stats        []Stat    `json:"stats"`
}

// Feature is a highlighted selling point on the home page.
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IconName    string `json:"iconName"`
}

// Stat is a headline number shown on the home page.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// AboutContent is the about page content block.
type AboutContent struct {
	Title   string       `json:"title"`
	Story   string       `json:"story"`
	Mission string       `json:"mission"`
	Vision  string       `json:"vision"`
	Image   string       `json:"image"`
	Team    []TeamMember `json:"team"`
}

// TeamMember is a person listed on the about page.
type TeamMember struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	ImageURL string `json:"imageUrl"`
}

// ServicesPage holds the services page header and its service items.
type ServicesPage struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Items    []Service `json:"items"`
}

// Service is one offering on the services page.
type Service struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Details     string `json:"details"`
	IconName    string `json:"iconName"`
	Price       string `json:"price"`
}

// ContactInfo is the contact page content block.
type ContactInfo struct {
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Hours    string `json:"hours"`
	MapURL   string `json:"mapUrl"`
	WhatsApp string `json:"whatsapp"`
}

// Testimonial is a customer quote.
type Testimonial struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Quote    string `json:"quote"`
	Rating   int    `json:"rating"`
	ImageURL string `json:"imageUrl"`
}

// KnowledgeResource is an entry in the knowledge hub.
type KnowledgeResource struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Date        string `json:"date"`
}

// Subscriber is a newsletter signup.
type Subscriber struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

// ContactMessage is a message sent through the contact form.
type ContactMessage struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Date    string `json:"date"`
}

// Clone returns a deep copy of the document.
func (d SiteData) Clone() SiteData {
	out := d
	out.Home = d.Home.Clone()
	out.About = d.About.Clone()
	out.ServicesPage = d.ServicesPage.Clone()
	out.Users = cloneSlice(d.Users)
	out.Blog = cloneSlice(d.Blog)
	out.Testimonials = cloneSlice(d.Testimonials)
	out.KnowledgeResources = cloneSlice(d.KnowledgeResources)
	out.Subscribers = cloneSlice(d.Subscribers)
	out.ContactMessages = cloneSlice(d.ContactMessages)
	out.TrafficStats = maps.Clone(d.TrafficStats)
	if d.ChatHistory != nil {
		out.ChatHistory = make([]ChatSession, len(d.ChatHistory))
		for i, s := range d.ChatHistory {
			out.ChatHistory[i] = s.Clone()
		}
	}
	if d.SoilLabHistory != nil {
		out.SoilLabHistory = make([]SoilAnalysisRecord, len(d.SoilLabHistory))
		for i, r := range d.SoilLabHistory {
			out.SoilLabHistory[i] = r.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the home section.
func (h HomeContent) Clone() HomeContent {
	h.Features = cloneSlice(h.Features)
	h.Stats = cloneSlice(h.Stats)
	return h
}

// Clone returns a deep copy of the about section.
func (a AboutContent) Clone() AboutContent {
	a.Team = cloneSlice(a.Team)
	return a
}

// Clone returns a deep copy of the services page.
func (p ServicesPage) Clone() ServicesPage {
	p.Items = cloneSlice(p.Items)
	return p
}

// cloneSlice copies a slice of flat values, keeping nil as nil.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

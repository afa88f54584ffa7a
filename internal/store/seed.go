// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import "github.com/olegiv/agrisite/internal/model"

// Defaults returns a fresh copy of the default dataset. It is the first-run
// seed, the fallback for sections missing from stored documents and the
// target of Reset.
func Defaults() model.SiteData {
	return model.SiteData{
		Home: model.HomeContent{
			HeroTitle:    "Healthy Soil, Healthy Harvests",
			HeroSubtitle: "Certified organic farming, soil testing and training for farmers across Madhya Pradesh.",
			HeroImage:    "/images/hero-fields.jpg",
			CTAText:      "Test Your Soil",
			Features: []model.Feature{
				{Title: "100% Organic", Description: "No synthetic fertilizers or pesticides, ever.", IconName: "leaf"},
				{Title: "Soil Lab", Description: "Photo-based soil and plant health reports in English and Hindi.", IconName: "flask"},
				{Title: "Farmer Training", Description: "Hands-on workshops in composting, mulching and crop rotation.", IconName: "users"},
			},
			Stats: []model.Stat{
				{Label: "Farmers trained", Value: "1,200+"},
				{Label: "Acres converted", Value: "3,500"},
				{Label: "Years in the field", Value: "12"},
			},
		},
		About: model.AboutContent{
			Title:   "Rooted in the Land",
			Story:   "We started as a single family plot near Indore and grew into a cooperative of organic growers sharing one belief: soil is a living thing.",
			Mission: "Help every farmer we meet rebuild soil health and earn more from fewer inputs.",
			Vision:  "A district where organic farming is the default, not the exception.",
			Image:   "/images/about-team.jpg",
			Team: []model.TeamMember{
				{Name: "Ramesh Patel", Role: "Founder & Agronomist", ImageURL: "/images/team-ramesh.jpg"},
				{Name: "Sunita Verma", Role: "Soil Scientist", ImageURL: "/images/team-sunita.jpg"},
			},
		},
		ServicesPage: model.ServicesPage{
			Title:    "Our Services",
			Subtitle: "Practical support from the first soil sample to the first certified harvest.",
			Items: []model.Service{
				{
					ID:          1,
					Title:       "Soil Testing",
					Description: "Lab and photo-based analysis of texture, pH and nutrients.",
					Details:     "Includes a sampling kit, a full NPK and pH report and a one-page action plan for the next season.",
					IconName:    "flask",
					Price:       "₹499 per sample",
				},
				{
					ID:          2,
					Title:       "Organic Conversion",
					Description: "A three-season plan to move your farm off synthetic inputs.",
					Details:     "Field visits every month, input sourcing help and paperwork for organic certification.",
					IconName:    "sprout",
					Price:       "₹15,000 per season",
				},
				{
					ID:          3,
					Title:       "Compost & Vermicompost",
					Description: "Set up on-farm composting that pays for itself.",
					Details:     "Pit design, earthworm starter culture and two follow-up visits to check maturity.",
					IconName:    "recycle",
					Price:       "₹3,500 setup",
				},
				{
					ID:          4,
					Title:       "Farmer Workshops",
					Description: "Group training in the village, in Hindi.",
					Details:     "Full-day sessions on crop rotation, natural pest control and water conservation for up to 30 farmers.",
					IconName:    "users",
					Price:       "Free for cooperative members",
				},
			},
		},
		Contact: model.ContactInfo{
			Address:  "Village Khudel, Indore, Madhya Pradesh 452020",
			Phone:    "+91 98260 12345",
			Email:    "hello@greenrootsfarm.in",
			Hours:    "Mon-Sat, 8:00 AM - 6:00 PM",
			MapURL:   "https://maps.google.com/?q=Khudel+Indore",
			WhatsApp: "+91 98260 12345",
		},
		Users: []model.User{
			{ID: 1, Username: "admin", Password: "admin123", Role: model.RoleAdmin},
		},
		Blog: []model.BlogPost{
			{
				ID:       1,
				Title:    "Why Soil Organic Matter Matters",
				Slug:     "why-soil-organic-matter-matters",
				Excerpt:  "Organic matter is the engine of soil fertility. Here is how to build it season after season.",
				Content:  "Soil organic matter holds water, feeds soil life and releases nutrients slowly.\n\nAdd compost every season, keep the ground covered and reduce tillage to build it up.",
				Date:     "Jan 12, 2026",
				Author:   "Sunita Verma",
				Category: "Soil Health",
				ImageURL: "/images/blog-organic-matter.jpg",
				Status:   model.StatusPublished,
				SEO: model.BlogSEO{
					MetaTitle:       "Why Soil Organic Matter Matters",
					MetaDescription: "Organic matter is the engine of soil fertility. Here is how to build it season after season.",
					Keywords:        "Soil Health",
				},
			},
			{
				ID:       2,
				Title:    "Crop Rotation for Small Farms",
				Slug:     "crop-rotation-for-small-farms",
				Excerpt:  "A simple four-year rotation that breaks pest cycles and feeds the soil.",
				Content:  "Rotate cereals, legumes, oilseeds and a green manure crop.\n\nLegumes fix nitrogen for the cereal that follows them.",
				Date:     "Feb 3, 2026",
				Author:   "Ramesh Patel",
				Category: "Farming Practices",
				ImageURL: "/images/blog-rotation.jpg",
				Status:   model.StatusPublished,
				SEO: model.BlogSEO{
					MetaTitle:       "Crop Rotation for Small Farms",
					MetaDescription: "A simple four-year rotation that breaks pest cycles and feeds the soil.",
					Keywords:        "Farming Practices",
				},
			},
			{
				ID:       3,
				Title:    "Natural Pest Control with Neem",
				Slug:     "natural-pest-control-with-neem",
				Excerpt:  "Neem oil and neem cake protect crops without harming pollinators.",
				Content:  "Spray a 2% neem oil emulsion in the evening.\n\nWork neem cake into the soil before sowing to deter nematodes.",
				Date:     "Mar 18, 2026",
				Author:   "Ramesh Patel",
				Category: "Pest Management",
				ImageURL: "/images/blog-neem.jpg",
				Status:   model.StatusPublished,
				SEO: model.BlogSEO{
					MetaTitle:       "Natural Pest Control with Neem",
					MetaDescription: "Neem oil and neem cake protect crops without harming pollinators.",
					Keywords:        "Pest Management",
				},
			},
		},
		Testimonials: []model.Testimonial{
			{ID: 1, Name: "Mahesh Yadav", Role: "Wheat farmer, Dewas", Quote: "My input costs fell by a third in the second season.", Rating: 5, ImageURL: "/images/testimonial-mahesh.jpg"},
			{ID: 2, Name: "Kavita Choudhary", Role: "Vegetable grower, Ujjain", Quote: "The soil report told me exactly what my field was missing.", Rating: 5, ImageURL: "/images/testimonial-kavita.jpg"},
		},
		KnowledgeResources: []model.KnowledgeResource{
			{ID: 1, Title: "Jeevamrut Preparation Guide", Category: "Inputs", Type: "guide", Description: "Step-by-step recipe for the fermented microbial culture.", URL: "/downloads/jeevamrut-guide.pdf", Date: "Jan 5, 2026"},
			{ID: 2, Title: "Reading a Soil Test Report", Category: "Soil Health", Type: "article", Description: "What NPK, pH and organic carbon numbers mean for your crop.", URL: "/knowledge/soil-test-report", Date: "Feb 10, 2026"},
			{ID: 3, Title: "Mulching Techniques", Category: "Water", Type: "video", Description: "Ten-minute field demonstration of straw and live mulch.", URL: "https://www.youtube.com/watch?v=mulching", Date: "Mar 1, 2026"},
		},
		Subscribers:     []model.Subscriber{},
		ContactMessages: []model.ContactMessage{},
		TrafficStats: model.TrafficStats{
			model.PageHome:      1240,
			model.PageAbout:     410,
			model.PageServices:  530,
			model.PageBlog:      780,
			model.PageContact:   260,
			model.PageKnowledge: 345,
			model.PageSoilLab:   620,
		},
		ChatHistory:    []model.ChatSession{},
		SoilLabHistory: []model.SoilAnalysisRecord{},
	}
}

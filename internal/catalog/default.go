package catalog

import "bookorder/internal/model"

// Default returns the built-in class 11 and 12 book catalogue.
func Default() *Store {
	return MustNew(defaultSubjects())
}

func defaultSubjects() []model.Subject {
	return []model.Subject{
		{
			ID:   "physics1",
			Name: "Physics First Paper",
			Items: []model.CatalogItem{
				{ID: "p1a1", Name: "Dr. Shahjahan Tapan", Price: 450},
				{ID: "p1a2", Name: "Hajari & Nag", Price: 420},
				{ID: "p1a3", Name: "Dr. Mohammad Ali", Price: 380},
			},
		},
		{
			ID:   "physics2",
			Name: "Physics Second Paper",
			Items: []model.CatalogItem{
				{ID: "p2a1", Name: "Dr. Shahjahan Tapan", Price: 460},
				{ID: "p2a2", Name: "Hajari & Nag", Price: 430},
				{ID: "p2a3", Name: "Dr. Mohammad Ali", Price: 390},
			},
		},
		{
			ID:   "biology1",
			Name: "Biology First Paper",
			Items: []model.CatalogItem{
				{ID: "b1a1", Name: "Dr. Gazi Azmal", Price: 400},
				{ID: "b1a2", Name: "Dr. Mahbubur Rahman", Price: 370},
				{ID: "b1a3", Name: "Touhidul Alam", Price: 350},
			},
		},
		{
			ID:   "biology2",
			Name: "Biology Second Paper",
			Items: []model.CatalogItem{
				{ID: "b2a1", Name: "Dr. Gazi Azmal", Price: 410},
				{ID: "b2a2", Name: "Dr. Mahbubur Rahman", Price: 380},
				{ID: "b2a3", Name: "Touhidul Alam", Price: 360},
			},
		},
		{
			ID:   "math1",
			Name: "Math First Paper",
			Items: []model.CatalogItem{
				{ID: "m1a1", Name: "Dr. Ketab Uddin", Price: 480},
				{ID: "m1a2", Name: "S.U Ahmed", Price: 440},
				{ID: "m1a3", Name: "Dr. Sarwar Jahan", Price: 400},
			},
		},
		{
			ID:   "math2",
			Name: "Math Second Paper",
			Items: []model.CatalogItem{
				{ID: "m2a1", Name: "Dr. Ketab Uddin", Price: 490},
				{ID: "m2a2", Name: "S.U Ahmed", Price: 450},
				{ID: "m2a3", Name: "Dr. Sarwar Jahan", Price: 410},
			},
		},
		{
			ID:   "chemistry1",
			Name: "Chemistry First Paper",
			Items: []model.CatalogItem{
				{ID: "c1a1", Name: "Dr. Hajari", Price: 420},
				{ID: "c1a2", Name: "Pradip Kumar Das", Price: 390},
				{ID: "c1a3", Name: "Dr. Saifur Rahman", Price: 370},
			},
		},
		{
			ID:   "chemistry2",
			Name: "Chemistry Second Paper",
			Items: []model.CatalogItem{
				{ID: "c2a1", Name: "Dr. Hajari", Price: 430},
				{ID: "c2a2", Name: "Pradip Kumar Das", Price: 400},
				{ID: "c2a3", Name: "Dr. Saifur Rahman", Price: 380},
			},
		},
		{
			ID:   "accounting",
			Name: "Accounting",
			Items: []model.CatalogItem{
				{ID: "aa1", Name: "Dr. Abdul Halim", Price: 520},
				{ID: "aa2", Name: "Mian Ahmed Ali", Price: 480},
				{ID: "aa3", Name: "Prof. Hanif", Price: 450},
			},
		},
		{
			ID:   "economics",
			Name: "Economics",
			Items: []model.CatalogItem{
				{ID: "ea1", Name: "Dr. Akhtaruzzaman", Price: 500},
				{ID: "ea2", Name: "Prof. Nurul Islam", Price: 460},
				{ID: "ea3", Name: "Dr. Bazlul Haque", Price: 430},
			},
		},
		{
			ID:   "finance",
			Name: "Finance",
			Items: []model.CatalogItem{
				{ID: "fa1", Name: "Dr. Khan Sarwar Murshid", Price: 550},
				{ID: "fa2", Name: "Prof. Abdul Awwal", Price: 510},
				{ID: "fa3", Name: "Dr. Shamsul Alam", Price: 480},
			},
		},
	}
}
